package testutils

import (
	orm "go.openobject.io/orm"
)

// PartnerFixture loads the res.partner / res.country dataset used
// across the package tests. Partners 1..3 exist, partner 1 and 2 point
// at country 5, partner 3 has no country, and partner 2 carries two
// child contacts.
func PartnerFixture(s *Stub) {
	s.AddModel("res.partner", orm.FieldMap{
		"name":       {Type: "char", String: "Name"},
		"email":      {Type: "char", String: "Email"},
		"country_id": {Type: orm.TypeMany2One, Relation: "res.country", String: "Country"},
		"child_ids":  {Type: orm.TypeOne2Many, Relation: "res.partner", String: "Contacts"},
		"image":      {Type: orm.TypeBinary, String: "Image"},
		"total_due":  {Type: "float", Function: true, String: "Total Due"},
	})
	s.AddRow("res.partner", orm.Row{
		"id": int64(1), "name": "Alice", "email": "alice@example.com",
		"country_id": []interface{}{int64(5), "Utopia"}, "child_ids": []int64{},
	})
	s.AddRow("res.partner", orm.Row{
		"id": int64(2), "name": "Bob", "email": "bob@example.com",
		"country_id": []interface{}{int64(5), "Utopia"}, "child_ids": []int64{4, 6},
	})
	s.AddRow("res.partner", orm.Row{
		"id": int64(3), "name": "Carol", "email": "carol@example.com",
		"country_id": false, "child_ids": []int64{},
	})
	s.AddRow("res.partner", orm.Row{
		"id": int64(4), "name": "Bob Jr", "email": "junior@example.com",
		"country_id": []interface{}{int64(5), "Utopia"}, "child_ids": []int64{},
	})
	s.AddRow("res.partner", orm.Row{
		"id": int64(6), "name": "Bobette", "email": "bobette@example.com",
		"country_id": false, "child_ids": []int64{},
	})

	s.AddModel("res.country", orm.FieldMap{
		"name": {Type: "char", String: "Name"},
		"code": {Type: "char", String: "Code"},
	})
	s.AddRow("res.country", orm.Row{"id": int64(5), "name": "Utopia", "code": "UT"})

	s.AddModel("ir.model", orm.FieldMap{
		"name":  {Type: "char", String: "Name"},
		"model": {Type: "char", String: "Model"},
	})
	s.AddRow("ir.model", orm.Row{"id": int64(77), "name": "Partner", "model": "res.partner"})
	s.AddRow("ir.model", orm.Row{"id": int64(78), "name": "Country", "model": "res.country"})
}
