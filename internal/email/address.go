package email

import (
	"fmt"
	"net/mail"
)

// Address is a display-name and email address pair.
type Address struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"email"`
}

// ParseAddress parses a single RFC 5322 address such as
// "Sam Smith <sam.smith@example.com>".
func ParseAddress(s string) (Address, error) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return Address{Name: addr.Name, Address: addr.Address}, nil
}

// ParseAddressList parses a comma-separated list of RFC 5322 addresses.
func ParseAddressList(s string) ([]Address, error) {
	parsed, err := mail.ParseAddressList(s)
	if err != nil {
		return nil, fmt.Errorf("parse address list %q: %w", s, err)
	}

	addrs := make([]Address, 0, len(parsed))
	for _, a := range parsed {
		addrs = append(addrs, Address{Name: a.Name, Address: a.Address})
	}
	return addrs, nil
}

// String renders the pair as "Name <addr>", or the bare address when no
// display name is set.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}
