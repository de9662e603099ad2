package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"price_bot/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestUpsertProduct(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	p := model.Product{
		SKU:    "9001",
		URL:    "https://www.ozon.ru/product/widget-9001",
		Name:   "Widget",
		Price:  "1500",
		Seller: "OOO Widgets",
	}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	// Re-scraping the same SKU must update the row, not duplicate it.
	again := model.Product{
		SKU:    "9001",
		URL:    "https://www.ozon.ru/product/widget-9001",
		Name:   "Widget Deluxe",
		Price:  "1400",
		Seller: "OOO Widgets",
	}
	if err := s.UpsertProduct(ctx, &again); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("upsert assigned new ID %d, want %d", again.ID, p.ID)
	}

	all, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}
	if diff := cmp.Diff(again, all[0]); diff != "" {
		t.Errorf("stored product mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertProductWithoutSKU(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	// Products whose slug carries no numeric identifier are keyed on their
	// canonical URL instead.
	a := model.Product{URL: "https://www.ozon.ru/product/widget", Price: "100"}
	b := model.Product{URL: "https://www.ozon.ru/product/gadget", Price: "200"}
	if err := s.UpsertProduct(ctx, &a); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := s.UpsertProduct(ctx, &b); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("distinct URLs collided")
	}

	dup := model.Product{URL: "https://www.ozon.ru/product/widget", Price: "90"}
	if err := s.UpsertProduct(ctx, &dup); err != nil {
		t.Fatalf("upsert dup: %v", err)
	}
	if dup.ID != a.ID {
		t.Errorf("same URL got new ID %d, want %d", dup.ID, a.ID)
	}
}

func TestUpdateProducts(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	products := []model.Product{
		{SKU: "1", URL: "https://www.ozon.ru/product/a-1", Price: "100"},
		{SKU: "2", URL: "https://www.ozon.ru/product/b-2", Price: "200"},
	}
	for i := range products {
		if err := s.UpsertProduct(ctx, &products[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	products[0].Price = "90"
	products[1].Price = "210"
	if err := s.UpdateProducts(ctx, products); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(products, got); diff != "" {
		t.Errorf("UpdateProducts mismatch (-want +got):\n%s", diff)
	}
}

func TestPriceHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	p := model.Product{SKU: "9001", URL: "https://www.ozon.ru/product/widget-9001", Price: "1500"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.AddPriceHistory(ctx, []int64{p.ID}, t1); err != nil {
		t.Fatalf("add history: %v", err)
	}

	p.Price = "1000"
	if err := s.UpdateProducts(ctx, []model.Product{p}); err != nil {
		t.Fatalf("update: %v", err)
	}
	t2 := t1.Add(24 * time.Hour)
	if err := s.AddPriceHistory(ctx, []int64{p.ID}, t2); err != nil {
		t.Fatalf("add history: %v", err)
	}

	got, err := s.PriceHistory(ctx, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	want := []model.PriceObservation{
		{ProductID: p.ID, Price: "1500", ObservedAt: t1},
		{ProductID: p.ID, Price: "1000", ObservedAt: t2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PriceHistory mismatch (-want +got):\n%s", diff)
	}
}

func TestAddPriceHistoryEmptySet(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	if err := s.AddPriceHistory(ctx, nil, time.Now()); err != nil {
		t.Fatalf("empty set: %v", err)
	}
}

func TestSaveTrackingOverwritesThreshold(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	p := model.Product{SKU: "9001", URL: "https://www.ozon.ru/product/widget-9001", Price: "1500"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tr := model.Tracking{UserTID: 100, ProductID: p.ID, Threshold: strPtr("1350")}
	if err := s.SaveTracking(ctx, &tr); err != nil {
		t.Fatalf("save tracking: %v", err)
	}

	tr.Threshold = strPtr("1200")
	if err := s.SaveTracking(ctx, &tr); err != nil {
		t.Fatalf("re-save tracking: %v", err)
	}

	tracked, err := s.ListTracked(ctx, 100)
	if err != nil {
		t.Fatalf("list tracked: %v", err)
	}
	if len(tracked) != 1 {
		t.Fatalf("expected 1 tracking, got %d", len(tracked))
	}
	if tracked[0].Threshold == nil || *tracked[0].Threshold != "1200" {
		t.Errorf("threshold = %v, want 1200", tracked[0].Threshold)
	}
}

func TestDeleteTracking(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	p := model.Product{SKU: "9001", URL: "https://www.ozon.ru/product/widget-9001", Price: "1500"}
	if err := s.UpsertProduct(ctx, &p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SaveTracking(ctx, &model.Tracking{UserTID: 100, ProductID: p.ID}); err != nil {
		t.Fatalf("save tracking: %v", err)
	}
	if err := s.DeleteTracking(ctx, 100, p.ID); err != nil {
		t.Fatalf("delete tracking: %v", err)
	}

	tracked, err := s.ListTracked(ctx, 100)
	if err != nil {
		t.Fatalf("list tracked: %v", err)
	}
	if len(tracked) != 0 {
		t.Errorf("expected no trackings, got %d", len(tracked))
	}
}

func TestUsersByProducts(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	p1 := model.Product{SKU: "1", URL: "https://www.ozon.ru/product/a-1", Price: "100"}
	p2 := model.Product{SKU: "2", URL: "https://www.ozon.ru/product/b-2", Price: "200"}
	for _, p := range []*model.Product{&p1, &p2} {
		if err := s.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	// U1 tracks both, U2 tracks only p2.
	trackings := []model.Tracking{
		{UserTID: 1, ProductID: p1.ID, Threshold: strPtr("90")},
		{UserTID: 1, ProductID: p2.ID},
		{UserTID: 2, ProductID: p2.ID},
	}
	for i := range trackings {
		if err := s.SaveTracking(ctx, &trackings[i]); err != nil {
			t.Fatalf("save tracking %d: %v", i, err)
		}
	}

	got, err := s.UsersByProducts(ctx, []int64{p1.ID})
	if err != nil {
		t.Fatalf("users by products: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 user, got %d", len(got))
	}
	if len(got[1]) != 1 || got[1][0].ID != p1.ID {
		t.Errorf("user 1 subset = %+v, want only product %d", got[1], p1.ID)
	}
	if got[1][0].Threshold == nil || *got[1][0].Threshold != "90" {
		t.Errorf("threshold = %v, want 90", got[1][0].Threshold)
	}

	got, err = s.UsersByProducts(ctx, []int64{p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("users by products: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	if len(got[1]) != 2 {
		t.Errorf("user 1 tracks %d of the changed products, want 2", len(got[1]))
	}
	if len(got[2]) != 1 || got[2][0].ID != p2.ID {
		t.Errorf("user 2 subset = %+v, want only product %d", got[2], p2.ID)
	}
}

func TestSaveAndGetUser(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	u := model.User{TID: 100, Name: "Test User", Username: "testuser"}
	if err := s.SaveUser(ctx, &u); err != nil {
		t.Fatalf("save user: %v", err)
	}

	// Re-auth refreshes the profile.
	u.Name = "Renamed User"
	u.AvatarID = strPtr("abc123")
	if err := s.SaveUser(ctx, &u); err != nil {
		t.Fatalf("re-save user: %v", err)
	}

	got, err := s.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if diff := cmp.Diff(&u, got); diff != "" {
		t.Errorf("GetUser mismatch (-want +got):\n%s", diff)
	}
}
