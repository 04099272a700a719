package dataset

// Record is implemented by every entity. Field returns the value stored under
// a schema field name: a scalar (string, bool, int, float64 or nil), a nested
// Record, or a []Record. The second result is false for names the entity
// does not have.
type Record interface {
	Field(name string) (any, bool)
}

func (a Address) Field(name string) (any, bool) {
	switch name {
	case "street":
		return a.Street, true
	case "city":
		return a.City, true
	case "zip":
		return a.Zip, true
	case "country":
		return a.Country, true
	}
	return nil, false
}

func (d Delivery) Field(name string) (any, bool) {
	switch name {
	case "delivered":
		return d.Delivered, true
	case "deliveryDate":
		return optional(d.DeliveryDate), true
	case "type":
		return d.Type, true
	case "address":
		return d.Address, true
	}
	return nil, false
}

func (it OrderItem) Field(name string) (any, bool) {
	switch name {
	case "name":
		return it.Name, true
	case "quantity":
		return it.Quantity, true
	case "price":
		return it.Price, true
	}
	return nil, false
}

func (o Order) Field(name string) (any, bool) {
	switch name {
	case "id":
		return o.ID, true
	case "date":
		return o.Date, true
	case "status":
		return o.Status, true
	case "total":
		return o.Total, true
	case "items":
		items := make([]Record, len(o.Items))
		for i := range o.Items {
			items[i] = o.Items[i]
		}
		return items, true
	case "delivery":
		return o.Delivery, true
	}
	return nil, false
}

func (u User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "name":
		return optional(u.Name), true
	}
	return nil, false
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
