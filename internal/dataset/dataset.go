// Package dataset holds the read-only orders and users the trainer queries.
//
// Records are loaded once, validated and normalized, and never modified
// afterwards. Every entity implements Record so that projection can walk it
// by schema field name without reflection.
package dataset

import (
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

type Address struct {
	Street  string `yaml:"street" json:"street"`
	City    string `yaml:"city" json:"city"`
	Zip     string `yaml:"zip" json:"zip"`
	Country string `yaml:"country" json:"country"`
}

type Delivery struct {
	Delivered    bool    `yaml:"delivered" json:"delivered"`
	DeliveryDate *string `yaml:"deliveryDate" json:"deliveryDate"`
	Type         string  `yaml:"type" json:"type"`
	Address      Address `yaml:"address" json:"address"`
}

type OrderItem struct {
	Name     string  `yaml:"name" json:"name"`
	Quantity int     `yaml:"quantity" json:"quantity"`
	Price    float64 `yaml:"price" json:"price"`
}

type Order struct {
	ID       string      `yaml:"id" json:"id"`
	Date     string      `yaml:"date" json:"date"`
	Status   string      `yaml:"status" json:"status"`
	Total    float64     `yaml:"total" json:"total"`
	Items    []OrderItem `yaml:"items" json:"items"`
	Delivery Delivery    `yaml:"delivery" json:"delivery"`
}

type User struct {
	ID   string  `yaml:"id" json:"id"`
	Name *string `yaml:"name" json:"name"`
}

// Dataset is an immutable, ordered collection of orders and users.
// It is safe for concurrent use.
type Dataset struct {
	orders []Order
	users  []User
	byID   map[string]int
}

// New validates and normalizes the given records and returns a Dataset that
// owns private copies of them.
func New(orders []Order, users []User) (*Dataset, error) {
	d := &Dataset{
		orders: make([]Order, 0, len(orders)),
		users:  make([]User, 0, len(users)),
		byID:   make(map[string]int, len(users)),
	}

	for i, u := range users {
		u = normalizeUser(u)
		if u.ID == "" {
			return nil, errors.Errorf("user #%d: id is required", i+1)
		}
		if _, dup := d.byID[u.ID]; dup {
			return nil, errors.Errorf("user %s: duplicate id", u.ID)
		}
		d.byID[u.ID] = len(d.users)
		d.users = append(d.users, u)
	}

	seen := make(map[string]struct{}, len(orders))
	for i, o := range orders {
		o = normalizeOrder(o)
		if err := validateOrder(o); err != nil {
			if o.ID == "" {
				return nil, errors.Wrapf(err, "order #%d", i+1)
			}
			return nil, errors.Wrapf(err, "order %s", o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			return nil, errors.Errorf("order %s: duplicate id", o.ID)
		}
		seen[o.ID] = struct{}{}
		d.orders = append(d.orders, o)
	}
	return d, nil
}

// Orders returns the orders in their original order. The slice is a copy;
// the records it holds must be treated as read-only.
func (d *Dataset) Orders() []Order { return slices.Clone(d.orders) }

// Users returns the users in their original order.
func (d *Dataset) Users() []User { return slices.Clone(d.users) }

// Len reports the number of orders.
func (d *Dataset) Len() int { return len(d.orders) }

// HasUser reports whether a user with the given id exists. The id is
// normalized the same way stored ids are.
func (d *Dataset) HasUser(id string) bool {
	_, ok := d.byID[norm.NFC.String(id)]
	return ok
}

// User looks a user up by id.
func (d *Dataset) User(id string) (User, bool) {
	i, ok := d.byID[norm.NFC.String(id)]
	if !ok {
		return User{}, false
	}
	return d.users[i], true
}

func validateOrder(o Order) error {
	switch {
	case o.ID == "":
		return errors.New("id is required")
	case o.Date == "":
		return errors.New("date is required")
	case o.Status == "":
		return errors.New("status is required")
	case o.Total < 0:
		return errors.Errorf("negative total %v", o.Total)
	}
	for i, it := range o.Items {
		switch {
		case it.Name == "":
			return errors.Errorf("item #%d: name is required", i+1)
		case it.Quantity <= 0:
			return errors.Errorf("item #%d: quantity must be positive, got %d", i+1, it.Quantity)
		case it.Price < 0:
			return errors.Errorf("item #%d: negative price %v", i+1, it.Price)
		}
	}
	dl := o.Delivery
	if dl.Type == "" {
		return errors.New("delivery type is required")
	}
	if !dl.Delivered && dl.DeliveryDate != nil {
		return errors.New("deliveryDate is set on an undelivered order")
	}
	a := dl.Address
	if a.Street == "" || a.City == "" || a.Zip == "" || a.Country == "" {
		return errors.New("delivery address requires street, city, zip and country")
	}
	return nil
}

func normalizeUser(u User) User {
	u.ID = norm.NFC.String(u.ID)
	u.Name = normalizePtr(u.Name)
	return u
}

func normalizeOrder(o Order) Order {
	o.ID = norm.NFC.String(o.ID)
	o.Date = norm.NFC.String(o.Date)
	o.Status = norm.NFC.String(o.Status)
	items := make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.Name = norm.NFC.String(it.Name)
		items[i] = it
	}
	o.Items = items
	o.Delivery.DeliveryDate = normalizePtr(o.Delivery.DeliveryDate)
	o.Delivery.Type = norm.NFC.String(o.Delivery.Type)
	a := &o.Delivery.Address
	a.Street = norm.NFC.String(a.Street)
	a.City = norm.NFC.String(a.City)
	a.Zip = norm.NFC.String(a.Zip)
	a.Country = norm.NFC.String(a.Country)
	return o
}

func normalizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	n := norm.NFC.String(*s)
	return &n
}
