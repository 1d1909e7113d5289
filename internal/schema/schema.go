// SPDX-License-Identifier: Apache-2.0

// Package schema defines the fixed GETS target schema: the 19 canonical
// invoice fields that source data is aligned against.
package schema

import "fmt"

// ValueType is the declared type of a target field's values.
type ValueType string

const (
	TypeText   ValueType = "text"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
)

// Category groups target fields by the section of the invoice they describe.
type Category string

const (
	CategoryHeader Category = "header"
	CategorySeller Category = "seller"
	CategoryBuyer  Category = "buyer"
	CategoryLines  Category = "lines"
)

// Field is one entry of the GETS target schema.
type Field struct {
	// Name is the dotted target path, e.g. "invoice.total_excl_vat".
	Name     string
	Type     ValueType
	Required bool
	Category Category
}

// Size is the number of fields in the GETS schema. Coverage scoring is
// computed against this fixed denominator.
const Size = 19

// fields is the canonical GETS schema, in its fixed declaration order.
var fields = []Field{
	{Name: "invoice.id", Type: TypeText, Required: true, Category: CategoryHeader},
	{Name: "invoice.issue_date", Type: TypeDate, Required: true, Category: CategoryHeader},
	{Name: "invoice.currency", Type: TypeText, Required: true, Category: CategoryHeader},
	{Name: "invoice.total_excl_vat", Type: TypeNumber, Required: true, Category: CategoryHeader},
	{Name: "invoice.vat_amount", Type: TypeNumber, Required: true, Category: CategoryHeader},
	{Name: "invoice.total_incl_vat", Type: TypeNumber, Required: true, Category: CategoryHeader},
	{Name: "seller.name", Type: TypeText, Required: true, Category: CategorySeller},
	{Name: "seller.trn", Type: TypeText, Required: true, Category: CategorySeller},
	{Name: "seller.country", Type: TypeText, Required: true, Category: CategorySeller},
	{Name: "seller.city", Type: TypeText, Required: false, Category: CategorySeller},
	{Name: "buyer.name", Type: TypeText, Required: true, Category: CategoryBuyer},
	{Name: "buyer.trn", Type: TypeText, Required: true, Category: CategoryBuyer},
	{Name: "buyer.country", Type: TypeText, Required: true, Category: CategoryBuyer},
	{Name: "buyer.city", Type: TypeText, Required: false, Category: CategoryBuyer},
	{Name: "lines.sku", Type: TypeText, Required: false, Category: CategoryLines},
	{Name: "lines.description", Type: TypeText, Required: false, Category: CategoryLines},
	{Name: "lines.qty", Type: TypeNumber, Required: true, Category: CategoryLines},
	{Name: "lines.unit_price", Type: TypeNumber, Required: true, Category: CategoryLines},
	{Name: "lines.line_total", Type: TypeNumber, Required: true, Category: CategoryLines},
}

var byName map[string]Field

func init() {
	if len(fields) != Size {
		panic(fmt.Sprintf("schema: expected %d fields, have %d", Size, len(fields)))
	}
	byName = make(map[string]Field, len(fields))
	for _, f := range fields {
		if _, dup := byName[f.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate field name %q", f.Name))
		}
		byName[f.Name] = f
	}
}

// Fields returns the GETS schema in declaration order. The returned slice is
// a copy; callers may not mutate the registry.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Lookup returns the field with the given dotted name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}
