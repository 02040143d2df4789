// Package mssql provides the SQL Server dialect: bracket quoting, named
// default constraints and extended property comments.
package mssql

import (
	"fmt"

	"schemac/internal/core"
	"schemac/internal/dialect"
	"schemac/internal/plan"
)

const (
	mssqlMaxIdentLen = 128
	// maxNVarChar is the largest length nvarchar accepts before (max).
	maxNVarChar  = 4000
	maxVarBinary = 8000
	schemaName   = "dbo"
)

func init() {
	dialect.Register(dialect.MSSQL, New)
}

// New builds the SQL Server descriptor for a server version.
func New(v dialect.Version) *dialect.Dialect {
	return &dialect.Dialect{
		Type:    dialect.MSSQL,
		Version: v,
		Capabilities: dialect.Capabilities{
			SupportsInlineAlterColumn:    true,
			SupportsDropColumnDirect:     true,
			SupportsNamedConstraintAlter: true,
			SupportsAddForeignKeyInline:  true,
			SupportsRenameColumn:         true,
			SupportsRebuild:              false,
			SupportsUnsigned:             false,
			DropColumnCascades:           false,
			TransactionalDDL:             true,
			ExplicitNull:                 true,
			NamedInlinePrimaryKey:        true,
			QuoteOpen:                    "[",
			QuoteClose:                   "]",
			MaxIdentifierLength:          mssqlMaxIdentLen,
			Comments:                     dialect.CommentSeparate,
			Enums:                        dialect.EnumNone,
			BoolTrue:                     "1",
			BoolFalse:                    "0",
			DefaultDecimalPrecision:      18,
			DefaultStringLength:          255,
			DefaultConstraintPrefix:      "DF",
			AddColumnKeyword:             "ADD",
			DropIndexOnTable:             true,
		},
		Strategies: dialect.Strategies{
			ColumnType:       columnType,
			AutoIncrement:    autoIncrement,
			AlterColumn:      alterColumn,
			RenameColumn:     renameColumn,
			CommentStatement: commentStatement,
			BeforeDropColumn: dropDefaultConstraint,
			QuoteString:      quoteString,
			QuoteComment:     quoteComment,
		},
	}
}

func columnType(d *dialect.Dialect, table string, col *core.Column) (dialect.TypeSQL, error) {
	var sql string
	switch col.Type {
	case core.TypeInteger:
		sql = "int"
	case core.TypeBigInt:
		sql = "bigint"
	case core.TypeFloat:
		sql = "float"
	case core.TypeDecimal:
		sql = d.Decimal("decimal", col)
	case core.TypeString:
		if n := d.StringLength(col); n <= maxNVarChar {
			sql = fmt.Sprintf("nvarchar(%d)", n)
		} else {
			sql = "nvarchar(max)"
		}
	case core.TypeText, core.TypeJSON, core.TypeJSONB:
		sql = "nvarchar(max)"
	case core.TypeBinary:
		if col.Length > 0 && col.Length <= maxVarBinary {
			sql = fmt.Sprintf("varbinary(%d)", col.Length)
		} else {
			sql = "varbinary(max)"
		}
	case core.TypeBoolean:
		sql = "bit"
	case core.TypeUUID:
		sql = "uniqueidentifier"
	case core.TypeDate:
		sql = "date"
	case core.TypeTimestamp:
		if col.Timestamp.WithTimezone() {
			sql = "datetimeoffset" + dialect.TimestampPrecision(col)
		} else {
			sql = "datetime2" + dialect.TimestampPrecision(col)
		}
	case core.TypeEnum:
		if col.Enum != nil && col.Enum.Native {
			return dialect.TypeSQL{}, d.UnsupportedType(table, col, "no native enum type; use an emulated enum")
		}
		sql = fmt.Sprintf("nvarchar(%d)", d.DefaultStringLength)
	case core.TypeBit:
		if col.Length > 1 {
			return dialect.TypeSQL{}, d.UnsupportedType(table, col, "bit columns hold a single bit, got length %d", col.Length)
		}
		sql = "bit"
	default:
		return dialect.TypeSQL{}, d.UnsupportedType(table, col, "unknown type %q", col.Type)
	}
	return dialect.TypeSQL{SQL: sql}, nil
}

func autoIncrement(_ *dialect.Dialect, _ *core.Column, _ bool, typeSQL string) (string, string, error) {
	return typeSQL, "IDENTITY(1,1)", nil
}

// alterColumn restates type and nullability with ALTER COLUMN. Defaults are
// separate constraints, so the old one is dropped through a catalog lookup
// and the new one added under its derived name.
func alterColumn(d *dialect.Dialect, in dialect.AlterColumnInput) ([]plan.Statement, error) {
	if in.New.AutoIncrement && (in.Old == nil || !in.Old.AutoIncrement) {
		return nil, core.Errorf(core.ErrUnsupportedOperation, in.Table, "column "+in.New.Name,
			"%s cannot add IDENTITY to an existing column", d.Type)
	}
	null := "NOT NULL"
	if in.New.Nullable {
		null = "NULL"
	}
	out := dropDefaultConstraint(d, in.Table, in.New.Name)
	out = append(out, plan.Stmt(fmt.Sprintf("%s ALTER COLUMN %s %s %s",
		d.AlterTable(in.Table), d.QuoteIdentifier(in.New.Name), in.Type, null)))
	if in.Default != "" {
		name := core.DefaultConstraintName(d.DefaultConstraintPrefix, in.Table, in.New.Name, d.MaxIdentifierLength)
		out = append(out, plan.Stmt(fmt.Sprintf("%s ADD CONSTRAINT %s DEFAULT %s FOR %s",
			d.AlterTable(in.Table), d.QuoteIdentifier(name), in.Default, d.QuoteIdentifier(in.New.Name))))
	}
	return out, nil
}

func renameColumn(d *dialect.Dialect, in dialect.RenameColumnInput) ([]plan.Statement, error) {
	object := d.QuoteIdentifier(in.Table) + "." + d.QuoteIdentifier(in.From)
	return []plan.Statement{plan.Stmt(fmt.Sprintf("EXEC sp_rename %s, %s, N'COLUMN'",
		quoteString(object), quoteString(in.To)))}, nil
}

// dropDefaultConstraint removes the default constraint of a column, whatever
// its name. Table and column are bound as values for the catalog lookup.
func dropDefaultConstraint(d *dialect.Dialect, table, column string) []plan.Statement {
	const lookup = `DECLARE @df nvarchar(max);
SELECT @df = N'ALTER TABLE ' + QUOTENAME(OBJECT_SCHEMA_NAME(dc.parent_object_id)) + N'.' + QUOTENAME(OBJECT_NAME(dc.parent_object_id)) + N' DROP CONSTRAINT ' + QUOTENAME(dc.name)
FROM sys.default_constraints dc
JOIN sys.columns c ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id
WHERE dc.parent_object_id = OBJECT_ID(@p1) AND c.name = @p2;
IF @df IS NOT NULL EXEC sp_executesql @df;`
	return []plan.Statement{plan.Stmt(lookup, schemaName+"."+table, column)}
}

// commentStatement stores comments as MS_Description extended properties.
func commentStatement(d *dialect.Dialect, in dialect.CommentInput) []plan.Statement {
	target := fmt.Sprintf("@level0type = N'SCHEMA', @level0name = %s, @level1type = N'TABLE', @level1name = %s",
		quoteString(schemaName), quoteString(in.Table))
	exists := fmt.Sprintf("SELECT 1 FROM sys.extended_properties WHERE name = N'MS_Description' AND major_id = OBJECT_ID(%s) AND minor_id = 0",
		quoteString(schemaName+"."+in.Table))
	if in.Column != "" {
		target += fmt.Sprintf(", @level2type = N'COLUMN', @level2name = %s", quoteString(in.Column))
		exists = fmt.Sprintf("SELECT 1 FROM sys.extended_properties ep JOIN sys.columns c ON c.object_id = ep.major_id AND c.column_id = ep.minor_id "+
			"WHERE ep.name = N'MS_Description' AND ep.major_id = OBJECT_ID(%s) AND c.name = %s",
			quoteString(schemaName+"."+in.Table), quoteString(in.Column))
	}

	if in.Comment == nil {
		if !in.Existed {
			return []plan.Statement{plan.Stmt(fmt.Sprintf("IF EXISTS (%s) EXEC sp_dropextendedproperty @name = N'MS_Description', %s", exists, target))}
		}
		return []plan.Statement{plan.Stmt(fmt.Sprintf("EXEC sp_dropextendedproperty @name = N'MS_Description', %s", target))}
	}

	value := d.CommentLiteral(*in.Comment)
	if in.Existed {
		return []plan.Statement{plan.Stmt(fmt.Sprintf("EXEC sp_updateextendedproperty @name = N'MS_Description', @value = %s, %s", value, target))}
	}
	return []plan.Statement{plan.Stmt(fmt.Sprintf("IF EXISTS (%s) EXEC sp_updateextendedproperty @name = N'MS_Description', @value = %s, %s "+
		"ELSE EXEC sp_addextendedproperty @name = N'MS_Description', @value = %s, %s", exists, value, target, value, target))}
}

func quoteString(s string) string {
	return "N'" + core.EscapeLiteral(s) + "'"
}

func quoteComment(s string) string {
	return "N'" + core.EscapeComment(s) + "'"
}
