package sheetstore_test

import (
	"testing"
	"time"

	sheetstore "github.com/dalemusser/projecthub/internal/app/store/blsheets"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/projecthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, store *sheetstore.Store, userID primitive.ObjectID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, sh := range []models.BLSheet{
		{ClientName: "Acme Corp", Money: 100, Tax: 10, IsPaid: true, Date: today},
		{ClientName: "acme labs", Money: 50, Tax: 5, IsPaid: false, Date: today},
		{ClientName: "Globex", Money: 200, Tax: 20, IsPaid: true, Date: today.AddDate(0, 0, -2)},
		{ClientName: "Initech", Money: 999, Tax: 99, IsPaid: false, Date: today.AddDate(0, 0, -60)},
	} {
		sh.UserID = userID
		if _, err := store.Create(ctx, sh); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
}

func TestStore_ListFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sheetstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	seed(t, store, me)
	seed(t, store, primitive.NewObjectID())

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	tests := []struct {
		name string
		f    sheetstore.ListFilter
		want int64
	}{
		{"all", sheetstore.ListFilter{}, 4},
		{"search is case-insensitive", sheetstore.ListFilter{Search: "ACME"}, 2},
		{"paid", sheetstore.ListFilter{Type: sheetstore.TypePaid}, 2},
		{"unpaid", sheetstore.ListFilter{Type: sheetstore.TypeUnpaid}, 2},
		{"from", sheetstore.ListFilter{From: &weekAgo}, 3},
		{"to", sheetstore.ListFilter{To: &weekAgo}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := store.List(ctx, me, tt.f, paging.Page{Current: 1, PerPage: 10})
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}

	rows, total, _ := store.List(ctx, me, sheetstore.ListFilter{}, paging.Page{Current: 2, PerPage: 3})
	if total != 4 || len(rows) != 1 {
		t.Errorf("page 2 = %d rows of %d, want 1 of 4", len(rows), total)
	}
	if len(rows) == 1 && rows[0].ClientName != "Initech" {
		t.Errorf("oldest sheet should be last, got %q", rows[0].ClientName)
	}
}

func TestStore_OwnerScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sheetstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	sh, _ := store.Create(ctx, models.BLSheet{ClientName: "Acme", Money: 1, Date: time.Now(), UserID: owner})

	if _, err := store.Update(ctx, sh.ID, other, models.BLSheet{ClientName: "Stolen"}); err != sheetstore.ErrNotFound {
		t.Errorf("Update by other err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, sh.ID, other); err != sheetstore.ErrNotFound {
		t.Errorf("Delete by other err = %v, want ErrNotFound", err)
	}

	got, err := store.Update(ctx, sh.ID, owner, models.BLSheet{ClientName: " Acme Two ", Money: 5, IsPaid: true, Date: sh.Date})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.ClientName != "Acme Two" || got.Money != 5 || !got.IsPaid {
		t.Errorf("unexpected sheet after update: %+v", got)
	}
	if err := store.Delete(ctx, sh.ID, owner); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestStore_Analytics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sheetstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	seed(t, store, me)

	totals, err := store.Totals(ctx, me)
	if err != nil {
		t.Fatalf("Totals failed: %v", err)
	}
	if totals.Paid.Money != 300 || totals.Paid.Count != 2 {
		t.Errorf("Paid = %+v, want money 300 count 2", totals.Paid)
	}
	if totals.Unpaid.Money != 1049 || totals.Unpaid.Tax != 104 {
		t.Errorf("Unpaid = %+v, want money 1049 tax 104", totals.Unpaid)
	}
	if totals.All.Money != 1349 || totals.All.Count != 4 {
		t.Errorf("All = %+v", totals.All)
	}

	days, err := store.Daily(ctx, me)
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2 (the 60-day-old entry is outside the window)", len(days))
	}
	last := days[1]
	if last.Paid != 100 || last.Unpaid != 50 || last.EntryCount != 2 {
		t.Errorf("today = %+v", last)
	}
	if days[0].Day >= last.Day {
		t.Errorf("days not oldest first: %s then %s", days[0].Day, last.Day)
	}
}
