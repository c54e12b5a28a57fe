package inventory

import "github.com/shopspring/decimal"

// Catalogue is the default stock loaded into empty stores.
func Catalogue() []*Record {
	rows := []struct {
		id, name  string
		available int
		price     string
	}{
		{"1", "Laptop", 50, "999.99"},
		{"2", "Mouse", 200, "29.99"},
		{"3", "Keyboard", 150, "79.99"},
		{"4", "Monitor", 30, "299.99"},
		{"5", "Headphones", 100, "149.99"},
	}

	out := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, _ := NewRecord(row.id, row.name, row.available, decimal.RequireFromString(row.price))
		out = append(out, rec)
	}
	return out
}
