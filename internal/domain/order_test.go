package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/origamishop/orders/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:     "order-1",
		Type:   domain.OrderTypeNormal,
		Status: domain.OrderStatusEnRevision,
		Contact: domain.Contact{
			Name:  "Ana Torres",
			Email: "ana@example.com",
			Phone: "+57 300 000 0000",
		},
		TotalMinor:    500,
		PaymentMethod: domain.PaymentEfectivo,
		Items: []domain.OrderItem{
			{
				ID:         "item-1",
				ProductID:  "product-1",
				Qty:        5,
				PriceMinor: 100,
				CreatedAt:  now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_CustomOk(t *testing.T) {
	order := makeOrder()
	order.Type = domain.OrderTypeCustom
	order.Items = nil
	order.TotalMinor = 0
	order.Description = "grulla de papel XL, tonos azules"
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors for custom order, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no contact",
			mut: func(o *domain.Order) {
				o.Contact.Email = ""
			},
			want: domain.ErrContactRequired,
		},
		{
			name: "unknown type",
			mut: func(o *domain.Order) {
				o.Type = "mayorista"
			},
			want: domain.ErrOrderTypeInvalid,
		},
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
			},
			want: domain.ErrItemsRequired,
		},
		{
			name: "custom without description",
			mut: func(o *domain.Order) {
				o.Type = domain.OrderTypeCustom
				o.Items = nil
				o.TotalMinor = 0
			},
			want: domain.ErrDescriptionRequired,
		},
		{
			name: "unknown payment method",
			mut: func(o *domain.Order) {
				o.PaymentMethod = "cheque"
			},
			want: domain.ErrPaymentMethodInvalid,
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Qty = 0
			},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].PriceMinor = -5
				o.TotalMinor = -25
			},
			want: domain.ErrItemPriceInvalid,
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalMinor = 999
			},
			want: domain.ErrTotalMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}

func TestOrderTransitionTo_ForwardChain(t *testing.T) {
	order := makeOrder()
	chain := []domain.OrderStatus{
		domain.OrderStatusAceptado,
		domain.OrderStatusTerminado,
		domain.OrderStatusEnviado,
		domain.OrderStatusCompletado,
	}

	for _, next := range chain {
		if err := order.TransitionTo(next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if order.Status != next {
			t.Fatalf("expected status %s, got %s", next, order.Status)
		}
	}
}

func TestOrderTransitionTo_SkipForwardAllowed(t *testing.T) {
	order := makeOrder()
	if err := order.TransitionTo(domain.OrderStatusEnviado); err != nil {
		t.Fatalf("forward skip should be allowed: %v", err)
	}
}

func TestOrderTransitionTo_Illegal(t *testing.T) {
	cases := []struct {
		name string
		from domain.OrderStatus
		to   domain.OrderStatus
		want error
	}{
		{name: "backward", from: domain.OrderStatusEnviado, to: domain.OrderStatusAceptado, want: domain.ErrStatusConflict},
		{name: "same status", from: domain.OrderStatusAceptado, to: domain.OrderStatusAceptado, want: domain.ErrStatusConflict},
		{name: "out of completado", from: domain.OrderStatusCompletado, to: domain.OrderStatusEnviado, want: domain.ErrStatusConflict},
		{name: "out of cancelado", from: domain.OrderStatusCancelado, to: domain.OrderStatusAceptado, want: domain.ErrStatusConflict},
		{name: "unknown status", from: domain.OrderStatusEnRevision, to: "empacado", want: domain.ErrStatusInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			order.Status = tc.from
			if err := order.TransitionTo(tc.to); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOrderCancel(t *testing.T) {
	for _, from := range []domain.OrderStatus{domain.OrderStatusEnRevision, domain.OrderStatusAceptado} {
		order := makeOrder()
		order.Status = from
		if err := order.CancelWithReason("cliente cambió de opinión"); err != nil {
			t.Fatalf("cancel from %s failed: %v", from, err)
		}
		if order.Status != domain.OrderStatusCancelado {
			t.Fatalf("expected cancelado, got %s", order.Status)
		}
		if order.CancelComment == "" {
			t.Fatal("expected cancellation reason to be recorded")
		}
	}
}

func TestOrderCancel_BlockedAfterDispatch(t *testing.T) {
	for _, from := range []domain.OrderStatus{
		domain.OrderStatusTerminado,
		domain.OrderStatusEnviado,
		domain.OrderStatusCompletado,
		domain.OrderStatusCancelado,
	} {
		order := makeOrder()
		order.Status = from
		if err := order.CancelWithReason(""); !errors.Is(err, domain.ErrStatusConflict) {
			t.Fatalf("cancel from %s: expected ErrStatusConflict, got %v", from, err)
		}
	}
}

func TestOrderOwnedBy(t *testing.T) {
	order := makeOrder()
	if !order.OwnedBy("ana@example.com") {
		t.Fatal("expected order to be owned by contact email")
	}
	if order.OwnedBy("otro@example.com") {
		t.Fatal("expected ownership check to fail for another email")
	}
	if order.OwnedBy("") {
		t.Fatal("empty email must never own an order")
	}
}
