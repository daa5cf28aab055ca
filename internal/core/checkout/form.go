// Package checkout validates shipping details collected at checkout.
package checkout

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

type Field string

const (
	FieldName     Field = "name"
	FieldProvince Field = "province"
	FieldDistrict Field = "district"
	FieldCity     Field = "city"
	FieldAddress  Field = "address"
	FieldPhone    Field = "phone"
)

// Fields lists the required form fields in display order.
func Fields() []Field {
	return []Field{
		FieldName, FieldProvince, FieldDistrict,
		FieldCity, FieldAddress, FieldPhone,
	}
}

var phonePattern = regexp.MustCompile(`^07\d{8}$`)

type Form struct {
	Name     string
	Province string
	District string
	City     string
	Address  string
	Phone    string
}

// Set assigns a field. Choosing a province clears the district.
func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldProvince:
		if f.Province != value {
			f.District = ""
		}
		f.Province = value
	case FieldDistrict:
		f.District = value
	case FieldCity:
		f.City = value
	case FieldAddress:
		f.Address = value
	case FieldPhone:
		f.Phone = value
	}
}

// DistrictOptions lists the districts selectable for the chosen province.
func (f Form) DistrictOptions() []string {
	return Districts(f.Province)
}

// Errors maps a field to its validation message. Empty means valid.
type Errors map[Field]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

func (e Errors) Fields() []Field {
	return slices.Sorted(maps.Keys(e))
}

func Validate(f Form) Errors {
	errs := make(Errors)
	if blank(f.Name) {
		errs[FieldName] = "Name is required"
	}
	switch {
	case blank(f.Province):
		errs[FieldProvince] = "Province is required"
	case !isProvince(f.Province):
		errs[FieldProvince] = "Unknown province"
	}
	switch {
	case blank(f.District):
		errs[FieldDistrict] = "District is required"
	case !inProvince(f.Province, f.District):
		errs[FieldDistrict] = "District does not belong to the province"
	}
	if blank(f.City) {
		errs[FieldCity] = "City is required"
	}
	if blank(f.Address) {
		errs[FieldAddress] = "Address is required"
	}
	if !ValidPhone(f.Phone) {
		errs[FieldPhone] = "Phone must look like 07XXXXXXXX"
	}
	return errs
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// FullAddress joins the structured fields into one shipping line.
func FullAddress(f Form) string {
	parts := []string{
		strings.TrimSpace(f.Address),
		strings.TrimSpace(f.City),
		f.District,
		f.Province,
	}
	return strings.Join(parts, ", ")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
