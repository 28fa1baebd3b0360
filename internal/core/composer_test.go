package core_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"supply-console/internal/core"

	"github.com/shopspring/decimal"
)

type saverStub struct {
	created []core.Purchase
	updated []core.Purchase
	err     error
}

func (s *saverStub) Create(_ context.Context, p core.Purchase) (*core.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, p)
	p.ID = 100
	return &p, nil
}

func (s *saverStub) Update(_ context.Context, id int64, p core.Purchase) (*core.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = append(s.updated, p)
	return &p, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sumItems(items []core.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Total)
	}
	return total
}

func TestComposer_AddThenRemove(t *testing.T) {
	c := core.NewComposer(&saverStub{})
	c.SelectSupplier(3)
	c.SetPendingProduct(core.Product{ID: 7, Name: "Bolt", DefaultPrice: dec("10.00")})
	c.SetPendingQuantity(2)

	if !c.AddItem() {
		t.Fatal("AddItem returned false")
	}
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	li := items[0]
	if li.Product.ID() != 7 || li.Quantity != 2 || !li.UnitPrice.Equal(dec("10")) || !li.Total.Equal(dec("20")) {
		t.Errorf("item = %+v", li)
	}
	if li.TempID == "" {
		t.Error("expected a temporary id on the new item")
	}
	if !c.Total().Equal(dec("20.00")) {
		t.Errorf("total = %s, want 20.00", c.Total())
	}

	pending := c.Pending()
	if pending.Product != nil || pending.Quantity != 1 || !pending.UnitPrice.IsZero() {
		t.Errorf("pending not reset: %+v", pending)
	}

	if err := c.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(c.Items()) != 0 || !c.Total().IsZero() {
		t.Errorf("after remove: items=%d total=%s", len(c.Items()), c.Total())
	}
}

func TestComposer_AddItemNoOp(t *testing.T) {
	c := core.NewComposer(&saverStub{})
	c.SetPendingQuantity(5)
	c.SetPendingUnitPrice(dec("3"))

	if c.AddItem() {
		t.Fatal("AddItem succeeded without a pending product")
	}
	if len(c.Items()) != 0 || !c.Total().IsZero() {
		t.Error("state changed by rejected AddItem")
	}
	if p := c.Pending(); p.Quantity != 5 || !p.UnitPrice.Equal(dec("3")) {
		t.Errorf("pending changed by rejected AddItem: %+v", p)
	}
}

func TestComposer_Clamping(t *testing.T) {
	c := core.NewComposer(&saverStub{})

	for _, n := range []int{0, -4} {
		c.SetPendingQuantity(n)
		if got := c.Pending().Quantity; got != 1 {
			t.Errorf("SetPendingQuantity(%d) -> %d, want 1", n, got)
		}
	}

	c.SetPendingUnitPrice(dec("-2.50"))
	if got := c.Pending().UnitPrice; !got.IsZero() {
		t.Errorf("negative price clamped to %s, want 0", got)
	}

	c.SetPendingProduct(core.Product{ID: 1, DefaultPrice: dec("-1")})
	if got := c.Pending().UnitPrice; !got.IsZero() {
		t.Errorf("negative default price seeded as %s", got)
	}

	c.SetPendingUnitPrice(dec("4.25"))
	if !c.AddItem() {
		t.Fatal("AddItem failed")
	}
	if got := c.Items()[0].Total; !got.Equal(dec("4.25")) {
		t.Errorf("total = %s", got)
	}
}

func TestComposer_RemoveItemOutOfRange(t *testing.T) {
	c := core.NewComposer(&saverStub{})
	c.SetPendingProduct(core.Product{ID: 1, DefaultPrice: dec("2")})
	c.AddItem()

	for _, i := range []int{-1, 1, 5} {
		err := c.RemoveItem(i)
		var ie *core.IndexError
		if !errors.As(err, &ie) {
			t.Fatalf("RemoveItem(%d) = %v, want IndexError", i, err)
		}
		if ie.Index != i || ie.Len != 1 {
			t.Errorf("IndexError = %+v", ie)
		}
	}
	if len(c.Items()) != 1 || !c.Total().Equal(dec("2")) {
		t.Error("state changed by failed RemoveItem")
	}
}

func TestComposer_TotalMatchesSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := core.NewComposer(&saverStub{})

	for step := 0; step < 500; step++ {
		n := len(c.Items())
		if n > 0 && rng.Intn(3) == 0 {
			if err := c.RemoveItem(rng.Intn(n)); err != nil {
				t.Fatalf("step %d: RemoveItem: %v", step, err)
			}
		} else {
			c.SetPendingProduct(core.Product{ID: int64(rng.Intn(20) + 1), DefaultPrice: decimal.New(int64(rng.Intn(10000)), -2)})
			c.SetPendingQuantity(rng.Intn(7))
			c.AddItem()
		}
		if got, want := c.Total(), sumItems(c.Items()); !got.Equal(want) {
			t.Fatalf("step %d: total %s != sum %s", step, got, want)
		}
	}
}

func TestComposer_SubmitValidation(t *testing.T) {
	t.Run("no supplier", func(t *testing.T) {
		saver := &saverStub{}
		c := core.NewComposer(saver)
		c.SetPendingProduct(core.Product{ID: 1, DefaultPrice: dec("1")})
		c.AddItem()

		_, err := c.Submit(context.Background())
		if err != core.ErrSupplierRequired {
			t.Errorf("err = %v, want supplier required", err)
		}
		if len(saver.created) != 0 {
			t.Error("saver called")
		}
	})

	t.Run("no supplier and no items", func(t *testing.T) {
		c := core.NewComposer(&saverStub{})
		_, err := c.Submit(context.Background())
		if !core.IsValidation(err) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("no items", func(t *testing.T) {
		saver := &saverStub{}
		c := core.NewComposer(saver)
		c.SelectSupplier(3)
		_, err := c.Submit(context.Background())
		if err != core.ErrItemsRequired {
			t.Errorf("err = %v, want at least one item required", err)
		}
		if err.Error() != "at least one item required" {
			t.Errorf("message = %q", err.Error())
		}
	})
}

func TestComposer_SubmitCreateThenUpdate(t *testing.T) {
	saver := &saverStub{}
	c := core.NewComposer(saver)
	c.SelectSupplierRecord(core.Supplier{ID: 3, Name: "ACME"})
	c.SetPendingProduct(core.Product{ID: 7, DefaultPrice: dec("10.00")})
	c.SetPendingQuantity(2)
	c.AddItem()

	saved, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(saver.created) != 1 || len(saver.updated) != 0 {
		t.Fatalf("created=%d updated=%d", len(saver.created), len(saver.updated))
	}
	if saved.ID != 100 || c.ID() != 100 {
		t.Errorf("id not adopted: saved=%d composer=%d", saved.ID, c.ID())
	}
	sent := saver.created[0]
	if sent.Supplier.ID() != 3 || sent.Status != core.StatusPending || !sent.Total.Equal(dec("20")) {
		t.Errorf("sent = %+v", sent)
	}

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if len(saver.updated) != 1 {
		t.Errorf("second submit should update, updated=%d", len(saver.updated))
	}
}

func TestComposer_SubmitFailureKeepsState(t *testing.T) {
	saver := &saverStub{err: errors.New("server down")}
	c := core.NewComposer(saver)
	c.SelectSupplier(3)
	c.SetPendingProduct(core.Product{ID: 7, DefaultPrice: dec("1.5")})
	c.AddItem()
	before := c.Draft()

	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	after := c.Draft()
	if after.ID != 0 || len(after.Items) != len(before.Items) || !after.Total.Equal(before.Total) {
		t.Errorf("state changed: before=%+v after=%+v", before, after)
	}
	if c.Submitting() {
		t.Error("submitting flag left set")
	}
}

func TestComposerFrom_RecomputesTotals(t *testing.T) {
	p := core.Purchase{
		ID:       9,
		Supplier: core.Resolved(core.Supplier{ID: 4, Name: "Fornecedor X"}),
		Status:   core.StatusDelivered,
		Items: []core.LineItem{
			{ID: 1, Product: core.UnresolvedProduct(7), Quantity: 3, UnitPrice: dec("2"), Total: dec("999")},
			{ID: 2, Product: core.UnresolvedProduct(8), Quantity: 1, UnitPrice: dec("0.5"), Total: dec("0.5")},
		},
		Total: dec("12345"),
	}
	c := core.ComposerFrom(&saverStub{}, p)

	if !c.Total().Equal(dec("6.5")) {
		t.Errorf("total = %s, want 6.5", c.Total())
	}
	if id, ok := c.Supplier(); !ok || id != 4 {
		t.Errorf("supplier = %d, %v", id, ok)
	}
	if c.SupplierLabel() != "Fornecedor X" {
		t.Errorf("label = %q", c.SupplierLabel())
	}
	if c.Status() != core.StatusDelivered || c.ID() != 9 {
		t.Errorf("status=%s id=%d", c.Status(), c.ID())
	}
}

func TestComposer_SelectSupplierIndependentOfPending(t *testing.T) {
	c := core.NewComposer(&saverStub{})
	c.SetPendingProduct(core.Product{ID: 7, DefaultPrice: dec("1")})
	c.SelectSupplier(3)
	if c.Pending().Product == nil {
		t.Error("selecting a supplier cleared the pending product")
	}
	c.SelectSupplier(0)
	if _, ok := c.Supplier(); ok {
		t.Error("SelectSupplier(0) should clear the selection")
	}
}
