package domain

import (
	"regexp"
	"strings"
)

type ContactRecord struct {
	Name  string
	Phone string
}

// numberChangeRe matches notices such as "+49 151 1234567 changed to +49 160 7654321"
// or "Alice changed their phone number to +91 98765 43210".
var numberChangeRe = regexp.MustCompile(`(?i)^(.+?) changed (?:their phone number |the phone number |number )?to (.+?)\.?$`)

// ContactDirectory holds one ContactRecord per normalized sender name.
// It is built explicitly from a message sequence and handed to the
// correlation engine.
type ContactDirectory struct {
	records map[string]*ContactRecord
	order   []string
	pending map[string]string // phones revealed before the contact wrote anything
}

func NewContactDirectory() *ContactDirectory {
	return &ContactDirectory{
		records: make(map[string]*ContactRecord),
		pending: make(map[string]string),
	}
}

// BuildDirectory walks messages in order, upserting a record for every user
// message sender. System notices never create records but may reveal a phone.
func BuildDirectory(messages []Message) *ContactDirectory {
	d := NewContactDirectory()
	for i := range messages {
		msg := &messages[i]
		if msg.IsSystem() {
			if name, phone, ok := revealedPhone(msg.Body); ok {
				d.RevealPhone(name, phone)
			}
			continue
		}
		d.Observe(msg.Sender)
	}
	return d
}

// Observe records a sender and returns its record. Empty names are ignored.
func (d *ContactDirectory) Observe(sender string) *ContactRecord {
	name := NormalizeName(sender)
	if name == "" {
		return nil
	}
	if rec, ok := d.records[name]; ok {
		return rec
	}

	rec := &ContactRecord{Name: name}
	if IsPhoneNumber(name) {
		rec.Phone = name
	}
	if phone, ok := d.pending[name]; ok {
		setPhone(rec, phone)
		delete(d.pending, name)
	}
	d.records[name] = rec
	d.order = append(d.order, name)
	return rec
}

// RevealPhone attaches a phone number to name. If the contact has not been
// observed yet the phone is applied when it is.
func (d *ContactDirectory) RevealPhone(name, phone string) {
	name = NormalizeName(name)
	phone = strings.TrimSpace(phone)
	if name == "" || !IsPhoneNumber(phone) {
		return
	}
	if rec, ok := d.records[name]; ok {
		setPhone(rec, phone)
		return
	}
	if cur, ok := d.pending[name]; !ok || moreSpecific(phone, cur) {
		d.pending[name] = phone
	}
}

// Lookup finds a contact by raw or normalized name.
func (d *ContactDirectory) Lookup(name string) (ContactRecord, bool) {
	rec, ok := d.records[NormalizeName(name)]
	if !ok {
		return ContactRecord{}, false
	}
	return *rec, true
}

// Contacts returns all records in first-seen order.
func (d *ContactDirectory) Contacts() []ContactRecord {
	out := make([]ContactRecord, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, *d.records[name])
	}
	return out
}

func (d *ContactDirectory) Len() int {
	return len(d.order)
}

// setPhone sets the phone once; afterwards only a more specific number
// for the same contact replaces it.
func setPhone(rec *ContactRecord, phone string) {
	if rec.Phone == "" || moreSpecific(phone, rec.Phone) {
		rec.Phone = phone
	}
}

// moreSpecific reports whether candidate carries more digits than current
// and ends with all of current's digits, e.g. "+91 98765 43210" vs "98765 43210".
func moreSpecific(candidate, current string) bool {
	c, cur := PhoneDigits(candidate), PhoneDigits(current)
	return len(c) > len(cur) && strings.HasSuffix(c, cur)
}

func revealedPhone(body string) (name, phone string, ok bool) {
	m := numberChangeRe.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil || !IsPhoneNumber(m[2]) {
		return "", "", false
	}
	return m[1], m[2], true
}
