package core

// validateIndexes verifies that every index column references an existing
// table column.
func validateIndexes(table *Table) error {
	for i, idx := range table.Indexes {
		if idx == nil {
			return Errorf(ErrInconsistentRequest, table.Name, "", "index at index %d is nil", i)
		}
		object := "index"
		if idx.Name != "" {
			object = "index " + idx.Name
		}
		if len(idx.Columns) == 0 {
			return Errorf(ErrMissingRequiredOption, table.Name, object, "index has no columns")
		}
		for _, col := range idx.Columns {
			if table.FindColumn(col) == nil {
				return Errorf(ErrInconsistentRequest, table.Name, object, "references nonexistent column %q", col)
			}
		}
	}
	return nil
}
