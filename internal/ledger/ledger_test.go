package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"repair-shop/internal/config"
	"repair-shop/internal/database"
	"repair-shop/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db     *gorm.DB
	ledger *Ledger
	device models.Device
	repair models.Repair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:     db,
		ledger: New(db, WithClock(func() time.Time { return testNow })),
	}

	client := models.Client{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Phone:     gofakeit.Phone(),
	}
	require.NoError(t, db.Create(&client).Error)

	f.device = models.Device{
		ClientID:   client.ID,
		DeviceType: models.DeviceWashingMachine,
		Brand:      gofakeit.Company(),
		Model:      gofakeit.LetterN(6),
	}
	require.NoError(t, db.Create(&f.device).Error)

	f.repair = models.Repair{DeviceID: f.device.ID, ProblemDescription: "не сливает воду"}
	require.NoError(t, f.ledger.SaveRepair(context.Background(), &f.repair))
	return f
}

func (f *fixture) workType(t *testing.T, price string) models.WorkType {
	t.Helper()
	wt := models.WorkType{Name: gofakeit.JobTitle(), StandardPrice: decimal.RequireFromString(price)}
	require.NoError(t, f.db.Create(&wt).Error)
	return wt
}

func (f *fixture) component(t *testing.T, qty int, price string) models.Component {
	t.Helper()
	c := models.Component{Name: gofakeit.ProductName(), Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var c models.Component
	require.NoError(t, f.db.First(&c, id).Error)
	return c.Quantity
}

func (f *fixture) storedTotal(t *testing.T) decimal.Decimal {
	t.Helper()
	var r models.Repair
	require.NoError(t, f.db.First(&r, f.repair.ID).Error)
	return r.TotalCost
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecomputeTotalWithoutLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	total, err := f.ledger.RecomputeTotal(ctx, f.repair.ID)
	require.NoError(t, err)
	assertMoney(t, "0", total)
	assertMoney(t, "0", f.storedTotal(t))

	// несохранённый ремонт
	total, err = f.ledger.RecomputeTotal(ctx, 0)
	require.NoError(t, err)
	assertMoney(t, "0", total)
}

func TestWorkAndStockComponentRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "450")
	comp := f.component(t, 10, "280")

	work, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{
		RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 2, UnitPrice: money("500"),
	})
	require.NoError(t, err)
	assertMoney(t, "1000", work.LineCost)
	assertMoney(t, "1000", work.TotalCost)

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 1, UnitPrice: money("300"),
	})
	require.NoError(t, err)

	assertMoney(t, "300", res.LineCost)
	assertMoney(t, "1300", res.TotalCost)
	assertMoney(t, "1300", f.storedTotal(t))
	assert.Equal(t, 9, res.StockQuantity)
	assert.Equal(t, -1, res.StockDelta)
	assert.False(t, res.StockShortfall)
	assert.Equal(t, 9, f.stock(t, comp.ID))
}

func TestComponentWithoutStockSkipsDecrement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "500")
	comp := f.component(t, 0, "300")

	_, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{
		RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 2, UnitPrice: money("500"),
	})
	require.NoError(t, err)

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 1, UnitPrice: money("300"),
	})
	require.NoError(t, err)

	assertMoney(t, "300", res.LineCost)
	assertMoney(t, "1300", res.TotalCost)
	assert.True(t, res.StockShortfall)
	assert.Equal(t, 0, res.StockDelta)
	assert.Equal(t, 0, f.stock(t, comp.ID))

	var line models.RepairComponent
	require.NoError(t, f.db.First(&line, res.LineID).Error)
	assert.Equal(t, 0, line.StockDrawn)
}

func TestComponentRequestAboveStockLeavesStock(t *testing.T) {
	f := newFixture(t)
	comp := f.component(t, 3, "10")

	res, err := f.ledger.RecordComponentLine(context.Background(), ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 4, UnitPrice: money("10"),
	})
	require.NoError(t, err)
	assert.True(t, res.StockShortfall)
	assert.Equal(t, 3, f.stock(t, comp.ID))
	assertMoney(t, "40", res.TotalCost)
}

func TestPurchasedComponentKeepsStock(t *testing.T) {
	f := newFixture(t)
	comp := f.component(t, 3, "120.50")

	res, err := f.ledger.RecordComponentLine(context.Background(), ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 50, UnitPrice: money("120.50"), WasPurchased: true,
	})
	require.NoError(t, err)
	assert.False(t, res.StockShortfall)
	assert.Equal(t, 3, f.stock(t, comp.ID))
	assertMoney(t, "6025", res.TotalCost)
}

func TestEditComponentLineMovesOnlyDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comp := f.component(t, 10, "100")

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 2, UnitPrice: money("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, comp.ID))

	// пересохранение без изменений склад не трогает
	_, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID: res.LineID, RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 2, UnitPrice: money("100"), Notes: "проверено",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.stock(t, comp.ID))

	res, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID: res.LineID, RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 5, UnitPrice: money("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, -3, res.StockDelta)
	assert.Equal(t, 5, f.stock(t, comp.ID))
	assertMoney(t, "500", res.TotalCost)

	res, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID: res.LineID, RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 1, UnitPrice: money("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.StockDelta)
	assert.Equal(t, 9, f.stock(t, comp.ID))
	assertMoney(t, "100", f.storedTotal(t))
}

func TestTogglePurchasedReturnsDrawnStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comp := f.component(t, 6, "50")

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 4, UnitPrice: money("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, comp.ID))

	_, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID: res.LineID, RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 4, UnitPrice: money("50"), WasPurchased: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, comp.ID))
}

func TestSwapComponentOnEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oldComp := f.component(t, 5, "10")
	newComp := f.component(t, 5, "20")

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: oldComp.ID, Quantity: 2, UnitPrice: money("10"),
	})
	require.NoError(t, err)

	_, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID: res.LineID, RepairID: f.repair.ID, ComponentID: newComp.ID, Quantity: 2, UnitPrice: money("20"),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, f.stock(t, oldComp.ID))
	assert.Equal(t, 3, f.stock(t, newComp.ID))
	assertMoney(t, "40", f.storedTotal(t))
}

func TestRemoveLinesRecomputesAndReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "500")
	comp := f.component(t, 10, "300")

	work, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{
		RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 2, UnitPrice: money("500"),
	})
	require.NoError(t, err)
	line, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 3, UnitPrice: money("300"),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, comp.ID))
	assertMoney(t, "1900", f.storedTotal(t))

	res, err := f.ledger.RemoveComponentLine(ctx, f.repair.ID, line.LineID)
	require.NoError(t, err)
	assertMoney(t, "1000", res.TotalCost)
	assert.Equal(t, 10, res.StockQuantity)
	assert.Equal(t, 10, f.stock(t, comp.ID))

	res, err = f.ledger.RemoveWorkLine(ctx, f.repair.ID, work.LineID)
	require.NoError(t, err)
	assertMoney(t, "0", res.TotalCost)
	assertMoney(t, "0", f.storedTotal(t))

	_, err = f.ledger.RemoveWorkLine(ctx, f.repair.ID, work.LineID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecordLineValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "100")
	comp := f.component(t, 5, "100")

	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "zero quantity",
			run: func() error {
				_, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 0, UnitPrice: money("1")})
				return err
			},
		},
		{
			name: "negative price",
			run: func() error {
				_, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: 1, UnitPrice: money("-1")})
				return err
			},
		},
		{
			name: "cost overflows column",
			run: func() error {
				_, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 1000, UnitPrice: money("100000")})
				return err
			},
		},
	}

	for _, tc := range tests {
		err := tc.run()
		require.Error(t, err, tc.name)
		assert.ErrorIs(t, err, models.ErrValidation, tc.name)
	}

	var works, comps int64
	require.NoError(t, f.db.Model(&models.RepairWork{}).Count(&works).Error)
	require.NoError(t, f.db.Model(&models.RepairComponent{}).Count(&comps).Error)
	assert.Zero(t, works)
	assert.Zero(t, comps)
	assert.Equal(t, 5, f.stock(t, comp.ID))
}

func TestRecordLineUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "100")

	_, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{RepairID: 9999, WorkTypeID: wt.ID, Quantity: 1, UnitPrice: money("1")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.ledger.RecordWorkLine(ctx, WorkLineInput{RepairID: f.repair.ID, WorkTypeID: 9999, Quantity: 1, UnitPrice: money("1")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{RepairID: f.repair.ID, ComponentID: 9999, Quantity: 1, UnitPrice: money("1")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	assertMoney(t, "0", f.storedTotal(t))
}

func TestTotalMatchesLinesAfterManySaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "1")
	comp := f.component(t, 1000, "1")

	var workIDs []uint
	for i := 0; i < 20; i++ {
		qty := gofakeit.IntRange(1, 5)
		price := decimal.NewFromFloat(gofakeit.Price(1, 900)).Round(2)

		if i%2 == 0 {
			in := WorkLineInput{RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: qty, UnitPrice: price}
			if len(workIDs) > 0 && i%3 == 0 {
				in.ID = workIDs[0]
			}
			res, err := f.ledger.RecordWorkLine(ctx, in)
			require.NoError(t, err)
			workIDs = append(workIDs, res.LineID)
		} else {
			_, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
				RepairID: f.repair.ID, ComponentID: comp.ID, Quantity: qty, UnitPrice: price, WasPurchased: i%5 == 0,
			})
			require.NoError(t, err)
		}
	}

	var works []models.RepairWork
	var comps []models.RepairComponent
	require.NoError(t, f.db.Where("repair_id = ?", f.repair.ID).Find(&works).Error)
	require.NoError(t, f.db.Where("repair_id = ?", f.repair.ID).Find(&comps).Error)

	want := decimal.Zero
	drawn := 0
	for _, w := range works {
		assert.True(t, models.LineCost(w.UnitPrice, w.Quantity).Equal(w.Cost))
		want = want.Add(w.Cost)
	}
	for _, c := range comps {
		assert.True(t, models.LineCost(c.UnitPrice, c.Quantity).Equal(c.TotalCost))
		want = want.Add(c.TotalCost)
		drawn += c.StockDrawn
	}

	assert.True(t, want.Equal(f.storedTotal(t)), "want %s, got %s", want, f.storedTotal(t))
	assert.Equal(t, 1000-drawn, f.stock(t, comp.ID))
}

func TestSaveRepairIgnoresCallerTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wt := f.workType(t, "250")

	_, err := f.ledger.RecordWorkLine(ctx, WorkLineInput{
		RepairID: f.repair.ID, WorkTypeID: wt.ID, Quantity: 1, UnitPrice: money("250"),
	})
	require.NoError(t, err)

	var r models.Repair
	require.NoError(t, f.db.First(&r, f.repair.ID).Error)
	acceptedAt := r.AcceptedAt
	r.TotalCost = money("1")
	r.AcceptedAt = testNow.Add(48 * time.Hour)
	r.Status = models.StatusCompleted
	require.NoError(t, f.ledger.SaveRepair(ctx, &r))

	assertMoney(t, "250", r.TotalCost)
	assertMoney(t, "250", f.storedTotal(t))
	assert.True(t, acceptedAt.Equal(r.AcceptedAt))

	// переходы статусов не ограничены
	r.Status = models.StatusAccepted
	require.NoError(t, f.ledger.SaveRepair(ctx, &r))
}

func TestSaveRepairNewStartsAtZero(t *testing.T) {
	f := newFixture(t)

	r := models.Repair{DeviceID: f.device.ID, ProblemDescription: "  гудит  ", TotalCost: money("999")}
	require.NoError(t, f.ledger.SaveRepair(context.Background(), &r))

	assert.NotZero(t, r.ID)
	assert.Equal(t, models.StatusAccepted, r.Status)
	assert.Equal(t, "гудит", r.ProblemDescription)
	assert.True(t, testNow.Equal(r.AcceptedAt))
	assertMoney(t, "0", r.TotalCost)
}

func TestSaveRepairValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.ledger.SaveRepair(ctx, &models.Repair{DeviceID: f.device.ID, ProblemDescription: "x", Status: "lost"})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = f.ledger.SaveRepair(ctx, &models.Repair{ProblemDescription: "x"})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = f.ledger.SaveRepair(ctx, &models.Repair{DeviceID: f.device.ID, ProblemDescription: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = f.ledger.SaveRepair(ctx, &models.Repair{DeviceID: 9999, ProblemDescription: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStockChange(t *testing.T) {
	tests := []struct {
		name         string
		purchased    bool
		qty, drawn   int
		onHand       int
		wantDelta    int
		wantShortage bool
	}{
		{name: "first draw", qty: 1, onHand: 10, wantDelta: -1},
		{name: "exact stock", qty: 10, onHand: 10, wantDelta: -10},
		{name: "not enough", qty: 11, onHand: 10, wantShortage: true},
		{name: "empty stock", qty: 1, onHand: 0, wantShortage: true},
		{name: "already drawn", qty: 3, drawn: 3, onHand: 0},
		{name: "raise quantity", qty: 5, drawn: 2, onHand: 3, wantDelta: -3},
		{name: "lower quantity", qty: 1, drawn: 4, onHand: 0, wantDelta: 3},
		{name: "purchased", purchased: true, qty: 7, onHand: 0},
		{name: "purchased after draw", purchased: true, qty: 7, drawn: 7, onHand: 1, wantDelta: 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			delta, short := stockChange(tc.purchased, tc.qty, tc.drawn, &models.Component{Quantity: tc.onHand})
			assert.Equal(t, tc.wantDelta, delta)
			assert.Equal(t, tc.wantShortage, short)
		})
	}
}

var errTotalWrite = errors.New("total_cost write failed")

// failTotalWrites ломает запись итога ремонта: транзакция строки должна откатиться целиком
func failTotalWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Callback().Update().Before("gorm:update").
		Register("test:fail_repair_total", func(tx *gorm.DB) {
			if tx.Statement.Table == "repairs" {
				_ = tx.AddError(errTotalWrite)
			}
		}))
}

func TestComponentLineRollsBackOnTotalFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comp := f.component(t, 10, "300")
	failTotalWrites(t, f.db)

	_, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID:    f.repair.ID,
		ComponentID: comp.ID,
		Quantity:    2,
		UnitPrice:   money("300"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTotalWrite)
	assert.ErrorContains(t, err, "ledger.RecordComponentLine")

	var lines int64
	require.NoError(t, f.db.Model(&models.RepairComponent{}).Count(&lines).Error)
	assert.Zero(t, lines)
	assert.Equal(t, 10, f.stock(t, comp.ID))
	assertMoney(t, "0", f.storedTotal(t))
}

func TestComponentLineEditRollsBackOnTotalFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	comp := f.component(t, 10, "300")

	res, err := f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		RepairID:    f.repair.ID,
		ComponentID: comp.ID,
		Quantity:    2,
		UnitPrice:   money("300"),
	})
	require.NoError(t, err)
	require.Equal(t, 8, f.stock(t, comp.ID))

	failTotalWrites(t, f.db)
	_, err = f.ledger.RecordComponentLine(ctx, ComponentLineInput{
		ID:          res.LineID,
		RepairID:    f.repair.ID,
		ComponentID: comp.ID,
		Quantity:    5,
		UnitPrice:   money("300"),
	})
	require.ErrorIs(t, err, errTotalWrite)

	var line models.RepairComponent
	require.NoError(t, f.db.First(&line, res.LineID).Error)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 2, line.StockDrawn)
	assert.Equal(t, 8, f.stock(t, comp.ID))
	assertMoney(t, "600", f.storedTotal(t))
}

func TestWorkLineRollsBackOnTotalFailure(t *testing.T) {
	f := newFixture(t)
	wt := f.workType(t, "500")
	failTotalWrites(t, f.db)

	_, err := f.ledger.RecordWorkLine(context.Background(), WorkLineInput{
		RepairID:   f.repair.ID,
		WorkTypeID: wt.ID,
		Quantity:   1,
		UnitPrice:  money("500"),
	})
	require.ErrorIs(t, err, errTotalWrite)
	assert.ErrorContains(t, err, "ledger.RecordWorkLine")

	var lines int64
	require.NoError(t, f.db.Model(&models.RepairWork{}).Count(&lines).Error)
	assert.Zero(t, lines)
	assertMoney(t, "0", f.storedTotal(t))
}
