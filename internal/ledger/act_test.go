package ledger

import (
	"context"
	"testing"
	"time"

	"repair-shop/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestActNumber(t *testing.T) {
	assert.Equal(t, "ACT-20240115-42", ActNumber(42, time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "ACT-20241201-7", ActNumber(7, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEnsureActCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := models.Repair{ID: 42, DeviceID: f.device.ID, ProblemDescription: "не греет", AcceptedAt: testNow}
	require.NoError(t, f.db.Create(&r).Error)

	act, created, err := f.ledger.EnsureAct(ctx, 42)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ACT-20240115-42", act.ActNumber)
	assert.True(t, testNow.Equal(act.CreatedAt))

	// через день номер не меняется
	later := New(f.db, WithClock(func() time.Time { return testNow.AddDate(0, 0, 1) }))
	again, created, err := later.EnsureAct(ctx, 42)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, act.ID, again.ID)
	assert.Equal(t, "ACT-20240115-42", again.ActNumber)

	var count int64
	require.NoError(t, f.db.Model(&models.RepairAct{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureActUnknownRepair(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ledger.EnsureAct(context.Background(), 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestActNumbersUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := models.Repair{DeviceID: f.device.ID, ProblemDescription: "шумит"}
	require.NoError(t, f.ledger.SaveRepair(ctx, &second))

	a1, _, err := f.ledger.EnsureAct(ctx, f.repair.ID)
	require.NoError(t, err)
	a2, _, err := f.ledger.EnsureAct(ctx, second.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a1.ActNumber, a2.ActNumber)

	// база сама не пропустит дубликат номера
	dup := models.RepairAct{RepairID: 9999, ActNumber: a1.ActNumber}
	assert.Error(t, f.db.Create(&dup).Error)
}

func TestMarkActPrintedOnlyFirstTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	act, _, err := f.ledger.EnsureAct(ctx, f.repair.ID)
	require.NoError(t, err)
	assert.Nil(t, act.PrintedAt)

	printed, err := f.ledger.MarkActPrinted(ctx, act.ID)
	require.NoError(t, err)
	require.NotNil(t, printed.PrintedAt)
	assert.True(t, testNow.Equal(*printed.PrintedAt))

	later := New(f.db, WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	again, err := later.MarkActPrinted(ctx, act.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PrintedAt)
	assert.True(t, testNow.Equal(*again.PrintedAt))

	_, err = f.ledger.MarkActPrinted(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateActNotesKeepsNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	act, _, err := f.ledger.EnsureAct(ctx, f.repair.ID)
	require.NoError(t, err)

	require.NoError(t, f.ledger.UpdateActNotes(ctx, act.ID, " гарантия 3 месяца "))

	var stored models.RepairAct
	require.NoError(t, f.db.First(&stored, act.ID).Error)
	assert.Equal(t, "гарантия 3 месяца", stored.Notes)
	assert.Equal(t, act.ActNumber, stored.ActNumber)

	assert.ErrorIs(t, f.ledger.UpdateActNotes(ctx, 9999, "x"), models.ErrNotFound)
}

func TestEnsureActLosesRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// пока EnsureAct готовит вставку, параллельный запрос успевает сохранить свой акт
	winner := models.RepairAct{RepairID: f.repair.ID, ActNumber: "ACT-20240114-1", CreatedAt: testNow}
	fired := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:begin_transaction").
		Register("test:concurrent_act", func(tx *gorm.DB) {
			if fired || tx.Statement.Table != "repair_acts" {
				return
			}
			fired = true
			require.NoError(t, f.db.Create(&winner).Error)
		}))

	act, created, err := f.ledger.EnsureAct(ctx, f.repair.ID)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.False(t, created)
	assert.Equal(t, winner.ID, act.ID)
	assert.Equal(t, "ACT-20240114-1", act.ActNumber)

	var count int64
	require.NoError(t, f.db.Model(&models.RepairAct{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureActConflictWithoutWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// дубликат появляется внутри той же транзакции и откатывается вместе с ней
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").
		Register("test:vanishing_act", func(tx *gorm.DB) {
			if tx.Statement.Table != "repair_acts" {
				return
			}
			_ = tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Exec(
				"INSERT INTO repair_acts (repair_id, act_number, created_at) VALUES (?, ?, ?)",
				f.repair.ID, "ACT-20240114-1", testNow,
			).Error)
		}))

	_, created, err := f.ledger.EnsureAct(ctx, f.repair.ID)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.ErrorContains(t, err, "ledger.EnsureAct")
	assert.False(t, created)

	var count int64
	require.NoError(t, f.db.Model(&models.RepairAct{}).Count(&count).Error)
	assert.Zero(t, count)
}
