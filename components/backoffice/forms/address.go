package forms

import "encoding/json"

// ShippingAddress holds the order form's shipping fields. The form keeps a
// JSON snapshot of these in a hidden field, recomputed on every keystroke, so
// a partially filled form always submits a consistent document.
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postal_code"`
	Address    string `json:"address"`
}

// AddressSnapshot tracks the shipping fields and their serialized form.
type AddressSnapshot struct {
	address  ShippingAddress
	snapshot string
}

// NewAddressSnapshot starts with every field empty; the snapshot still
// serializes all keys so the server never sees a partial document.
func NewAddressSnapshot() *AddressSnapshot {
	s := &AddressSnapshot{}
	s.serialize()
	return s
}

// SetName through SetAddress update one field and refresh the snapshot.
func (s *AddressSnapshot) SetName(v string)     { s.address.Name = v; s.serialize() }
func (s *AddressSnapshot) SetPhone(v string)    { s.address.Phone = v; s.serialize() }
func (s *AddressSnapshot) SetCity(v string)     { s.address.City = v; s.serialize() }
func (s *AddressSnapshot) SetDistrict(v string) { s.address.District = v; s.serialize() }
func (s *AddressSnapshot) SetPostal(v string)   { s.address.PostalCode = v; s.serialize() }
func (s *AddressSnapshot) SetAddress(v string)  { s.address.Address = v; s.serialize() }

// Address returns the current field values.
func (s *AddressSnapshot) Address() ShippingAddress {
	return s.address
}

// Snapshot returns the hidden-field JSON document.
func (s *AddressSnapshot) Snapshot() string {
	return s.snapshot
}

func (s *AddressSnapshot) serialize() {
	// ShippingAddress marshals without error; all fields are strings.
	raw, _ := json.Marshal(s.address)
	s.snapshot = string(raw)
}
