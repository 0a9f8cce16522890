package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeSingleRow(t *testing.T) {
	blob := workbookBytes(t, [][]any{
		{"order_id", "customer", "total_amount"},
		{"ORD-1", "Acme", 1200},
	})

	fields, err := New().DecodeFirstSheet(blob)
	if err != nil {
		t.Fatalf("DecodeFirstSheet() error = %v", err)
	}
	if fields["order_id"] != "ORD-1" || fields["customer"] != "Acme" {
		t.Fatalf("fields = %v", fields)
	}
	if _, hasItems := fields["items"]; hasItems {
		t.Fatalf("single row decoded as items: %v", fields)
	}
}

func TestDecodeMultipleRowsBecomeItems(t *testing.T) {
	blob := workbookBytes(t, [][]any{
		{"sku", "quantity"},
		{"A-1", 2},
		{"B-2", 5},
	})

	fields, err := New().DecodeFirstSheet(blob)
	if err != nil {
		t.Fatalf("DecodeFirstSheet() error = %v", err)
	}
	items, ok := fields["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v", fields["items"])
	}
	first := items[0].(map[string]any)
	if first["sku"] != "A-1" {
		t.Fatalf("first item = %v", first)
	}
}

func TestDecodeRejectsHeaderOnlySheet(t *testing.T) {
	blob := workbookBytes(t, [][]any{{"sku", "quantity"}})
	if _, err := New().DecodeFirstSheet(blob); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := New().DecodeFirstSheet([]byte("not a workbook")); err == nil {
		t.Fatal("expected error")
	}
}
