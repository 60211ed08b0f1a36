package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extra holds the keys an object carried beyond its documented fields, in the
// form the model supplied them. Every object in an InvoiceRecord also has a
// Literal: the value the model sent in place of the whole object, such as a
// string where an object was asked for. Both survive a JSON round trip.
type Extra map[string]Value

// Keys returns the extra keys in sorted order.
func (e Extra) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var knownKeys sync.Map // reflect.Type -> map[string]bool

// declaredKeys lists the json names a struct type declares.
func declaredKeys(t reflect.Type) map[string]bool {
	if cached, ok := knownKeys.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	knownKeys.Store(t, keys)
	return keys
}

// decodeObject fills dst, a pointer to the method-free alias of a record
// struct. Keys dst does not declare go to extra. A value that is not an
// object at all is kept whole in literal.
func decodeObject(b []byte, dst any, extra *Extra, literal *Value) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*literal = RawValue(trimmed)
		return nil
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return err
	}
	known := declaredKeys(reflect.TypeOf(dst).Elem())
	for k, raw := range all {
		if known[k] {
			continue
		}
		if *extra == nil {
			*extra = make(Extra)
		}
		(*extra)[k] = RawValue(raw)
	}
	return nil
}

// encodeObject is the inverse of decodeObject: the declared fields in order,
// then the extra keys sorted, or the literal alone when one was kept.
func encodeObject(plain any, extra Extra, literal Value) ([]byte, error) {
	if literal.IsSet() {
		return literal.MarshalJSON()
	}
	b, err := marshalNoEscape(plain)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range extra.Keys() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		val, err := extra[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c ContactInformation) MarshalJSON() ([]byte, error) {
	type plain ContactInformation
	return encodeObject(plain(c), c.Extra, c.Literal)
}

func (c *ContactInformation) UnmarshalJSON(b []byte) error {
	type plain ContactInformation
	return decodeObject(b, (*plain)(c), &c.Extra, &c.Literal)
}

func (bi BankingInformation) MarshalJSON() ([]byte, error) {
	type plain BankingInformation
	return encodeObject(plain(bi), bi.Extra, bi.Literal)
}

func (bi *BankingInformation) UnmarshalJSON(b []byte) error {
	type plain BankingInformation
	return decodeObject(b, (*plain)(bi), &bi.Extra, &bi.Literal)
}

func (p BillTo) MarshalJSON() ([]byte, error) {
	type plain BillTo
	return encodeObject(plain(p), p.Extra, p.Literal)
}

func (p *BillTo) UnmarshalJSON(b []byte) error {
	type plain BillTo
	return decodeObject(b, (*plain)(p), &p.Extra, &p.Literal)
}

func (p BillFrom) MarshalJSON() ([]byte, error) {
	type plain BillFrom
	return encodeObject(plain(p), p.Extra, p.Literal)
}

func (p *BillFrom) UnmarshalJSON(b []byte) error {
	type plain BillFrom
	return decodeObject(b, (*plain)(p), &p.Extra, &p.Literal)
}

func (i InvoiceInformation) MarshalJSON() ([]byte, error) {
	type plain InvoiceInformation
	return encodeObject(plain(i), i.Extra, i.Literal)
}

func (i *InvoiceInformation) UnmarshalJSON(b []byte) error {
	type plain InvoiceInformation
	return decodeObject(b, (*plain)(i), &i.Extra, &i.Literal)
}

func (l ServiceLine) MarshalJSON() ([]byte, error) {
	type plain ServiceLine
	return encodeObject(plain(l), l.Extra, l.Literal)
}

func (l *ServiceLine) UnmarshalJSON(b []byte) error {
	type plain ServiceLine
	return decodeObject(b, (*plain)(l), &l.Extra, &l.Literal)
}

func (t Taxes) MarshalJSON() ([]byte, error) {
	type plain Taxes
	return encodeObject(plain(t), t.Extra, t.Literal)
}

func (t *Taxes) UnmarshalJSON(b []byte) error {
	type plain Taxes
	return decodeObject(b, (*plain)(t), &t.Extra, &t.Literal)
}

func (x ExchangeRate) MarshalJSON() ([]byte, error) {
	type plain ExchangeRate
	return encodeObject(plain(x), x.Extra, x.Literal)
}

func (x *ExchangeRate) UnmarshalJSON(b []byte) error {
	type plain ExchangeRate
	return decodeObject(b, (*plain)(x), &x.Extra, &x.Literal)
}

func (c CalculationDetails) MarshalJSON() ([]byte, error) {
	type plain CalculationDetails
	return encodeObject(plain(c), c.Extra, c.Literal)
}

func (c *CalculationDetails) UnmarshalJSON(b []byte) error {
	type plain CalculationDetails
	return decodeObject(b, (*plain)(c), &c.Extra, &c.Literal)
}

func (p PaymentInstructions) MarshalJSON() ([]byte, error) {
	type plain PaymentInstructions
	return encodeObject(plain(p), p.Extra, p.Literal)
}

func (p *PaymentInstructions) UnmarshalJSON(b []byte) error {
	type plain PaymentInstructions
	return decodeObject(b, (*plain)(p), &p.Extra, &p.Literal)
}

func (s SpecialConditions) MarshalJSON() ([]byte, error) {
	type plain SpecialConditions
	return encodeObject(plain(s), s.Extra, s.Literal)
}

func (s *SpecialConditions) UnmarshalJSON(b []byte) error {
	type plain SpecialConditions
	return decodeObject(b, (*plain)(s), &s.Extra, &s.Literal)
}

func (c CustomerContact) MarshalJSON() ([]byte, error) {
	type plain CustomerContact
	return encodeObject(plain(c), c.Extra, c.Literal)
}

func (c *CustomerContact) UnmarshalJSON(b []byte) error {
	type plain CustomerContact
	return decodeObject(b, (*plain)(c), &c.Extra, &c.Literal)
}

func (c CustomerInformation) MarshalJSON() ([]byte, error) {
	type plain CustomerInformation
	return encodeObject(plain(c), c.Extra, c.Literal)
}

func (c *CustomerInformation) UnmarshalJSON(b []byte) error {
	type plain CustomerInformation
	return decodeObject(b, (*plain)(c), &c.Extra, &c.Literal)
}
