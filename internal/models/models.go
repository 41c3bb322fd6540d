package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Room{},
		&ReservationItem{},
		&Guest{},
		&Invoice{},
		&InvoiceItem{},
		&InvoiceSequence{},
		&Reservation{},
		&Item{},
		&ItemIngredient{},
		&Order{},
		&ItemOrder{},
		&Task{},
	}
}
