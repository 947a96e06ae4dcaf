package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"github.com/jjzperilla/pegeditor/internal/peg/repository"
	"github.com/jjzperilla/pegeditor/internal/peg/service"
	"github.com/jjzperilla/pegeditor/internal/peg/testutil"
	"gorm.io/gorm"
)

func newPegService(t *testing.T) (*service.PegService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return service.NewPegService(repos, db, nil, nil), db
}

func fptr(v float64) *float64 {
	return &v
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func daysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format("2006-01-02")
}

func basicSaveRequest(capacity string) *service.SavePegRequest {
	return &service.SavePegRequest{
		Capacity:  capacity,
		Interface: "sata",
		Condition: "used",
		PegName:   "test peg",
		Date:      today(),
		Peg: service.PegPayload{
			Points: []service.PointInput{
				{Label: "vendor-a", Channel: "web", Price: 10, Qty: 3, Weight: 1},
				{Label: "vendor-b", Channel: "web", Price: 20, Qty: 5, Weight: 3},
			},
			Modifiers: []service.ModifierInput{
				{Label: "shipping", Amount: -2.5},
			},
		},
	}
}

func TestSaveCreatesConfigPointsHistorySnapshot(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	res, err := svc.Save(ctx, basicSaveRequest("4TB"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if res.ConfigID == "" {
		t.Fatal("expected config_id in result")
	}
	if !res.IsLatest {
		t.Error("first save should be latest")
	}

	var cfg entity.PegConfig
	if err := db.First(&cfg, "id = ?", res.ConfigID).Error; err != nil {
		t.Fatalf("config not persisted: %v", err)
	}
	if cfg.Capacity != "4TB" || cfg.Interface != "sata" || cfg.ConditionType != "used" {
		t.Errorf("unexpected identity: %s/%s/%s", cfg.Capacity, cfg.Interface, cfg.ConditionType)
	}
	if cfg.MarginPercent != entity.DefaultMarginPercent {
		t.Errorf("expected default margin %v, got %v", entity.DefaultMarginPercent, cfg.MarginPercent)
	}

	var pointCount, histCount int64
	db.Model(&entity.PegPoint{}).Where("config_id = ?", cfg.ID).Count(&pointCount)
	db.Model(&entity.PegPointHistory{}).Where("day_date = ?", today()).Count(&histCount)
	if pointCount != 2 {
		t.Errorf("expected 2 points, got %d", pointCount)
	}
	if histCount != 2 {
		t.Errorf("expected 2 history rows, got %d", histCount)
	}

	var snap entity.PegSnapshot
	if err := db.First(&snap, "config_id = ? AND day_date = ?", cfg.ID, today()).Error; err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	// weighted: (10*1 + 20*3) / 4 = 17.5, modifier -2.5 → 15
	if snap.BasePrice != 17.5 {
		t.Errorf("expected base price 17.5, got %v", snap.BasePrice)
	}
	if snap.AdjustedPrice != 15 {
		t.Errorf("expected adjusted price 15, got %v", snap.AdjustedPrice)
	}
}

func TestSaveSameDayOverwritesHistoryRow(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("8TB")
	req.Peg.Points = req.Peg.Points[:1]
	res, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	var point entity.PegPoint
	if err := db.First(&point, "config_id = ?", res.ConfigID).Error; err != nil {
		t.Fatalf("point not found: %v", err)
	}

	// second save same day, same point, new price
	req.Peg.Points = []service.PointInput{
		{ID: point.ID, Label: "vendor-a", Channel: "web", Price: 42, Qty: 7, Weight: 1},
	}
	if _, err := svc.Save(ctx, req); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var histRows []entity.PegPointHistory
	db.Where("peg_point_id = ? AND day_date = ?", point.ID, today()).Find(&histRows)
	if len(histRows) != 1 {
		t.Fatalf("expected exactly 1 history row for (point, day), got %d", len(histRows))
	}
	if histRows[0].Price != 42 || histRows[0].Qty != 7 {
		t.Errorf("history row not overwritten: price=%v qty=%d", histRows[0].Price, histRows[0].Qty)
	}
}

func TestSaveOlderDateKeepsLiveProjection(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("2TB")
	req.Peg.Points = []service.PointInput{
		{Label: "vendor-a", Channel: "web", Price: 100, Qty: 4, Weight: 1},
	}
	res, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	var point entity.PegPoint
	if err := db.First(&point, "config_id = ?", res.ConfigID).Error; err != nil {
		t.Fatalf("point not found: %v", err)
	}

	// backfill yesterday: history must be recorded, live projection untouched
	req.Date = daysAgo(1)
	req.Peg.Points = []service.PointInput{
		{ID: point.ID, Label: "vendor-a", Channel: "web", Price: 50, Qty: 9, Weight: 1},
	}
	res2, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("backfill save failed: %v", err)
	}
	if res2.IsLatest {
		t.Error("backfill save must not be latest")
	}

	db.First(&point, "id = ?", point.ID)
	if point.Price != 100 || point.Qty != 4 {
		t.Errorf("live projection changed by backfill: price=%v qty=%d", point.Price, point.Qty)
	}

	var hist entity.PegPointHistory
	if err := db.First(&hist, "peg_point_id = ? AND day_date = ?", point.ID, daysAgo(1)).Error; err != nil {
		t.Fatalf("backfill history row missing: %v", err)
	}
	if hist.Price != 50 {
		t.Errorf("expected backfill price 50, got %v", hist.Price)
	}
}

func TestSaveLatestDateUpdatesLiveProjection(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("6TB")
	req.Date = daysAgo(1)
	req.Peg.Points = []service.PointInput{
		{Label: "vendor-a", Channel: "web", Price: 60, Qty: 2, Weight: 1},
	}
	res, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	var point entity.PegPoint
	db.First(&point, "config_id = ?", res.ConfigID)

	req.Date = today()
	req.Peg.Points = []service.PointInput{
		{ID: point.ID, Label: "vendor-a", Channel: "web", Price: 75, Qty: 6, Weight: 1},
	}
	res2, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if !res2.IsLatest {
		t.Error("save at the newest date must be latest")
	}

	db.First(&point, "id = ?", point.ID)
	if point.Price != 75 || point.Qty != 6 {
		t.Errorf("live projection not updated: price=%v qty=%d", point.Price, point.Qty)
	}
}

func TestSaveFutureDateRejected(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("10TB")
	req.Date = time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	_, err := svc.Save(ctx, req)
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for future date, got %v", err)
	}

	var count int64
	db.Model(&entity.PegConfig{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no config persisted after rejection, got %d", count)
	}
}

func TestSaveInvalidDateFormatRejected(t *testing.T) {
	svc, _ := newPegService(t)
	ctx := context.Background()

	for _, bad := range []string{"2024/01/02", "2024-1-2", "20240102", "2024-13-40"} {
		req := basicSaveRequest("1TB")
		req.Date = bad
		if _, err := svc.Save(ctx, req); !errors.Is(err, service.ErrValidation) {
			t.Errorf("date %q: expected ErrValidation, got %v", bad, err)
		}
	}
}

func TestSaveUnknownEnumRejected(t *testing.T) {
	svc, _ := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("1TB")
	req.Interface = "nvme"
	if _, err := svc.Save(ctx, req); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown interface, got %v", err)
	}

	req = basicSaveRequest("1TB")
	req.Condition = "mint"
	if _, err := svc.Save(ctx, req); !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown condition, got %v", err)
	}
}

func TestSaveForeignKeyMismatchAbortsWholeBatch(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	reqA := basicSaveRequest("4TB")
	resA, err := svc.Save(ctx, reqA)
	if err != nil {
		t.Fatalf("save A failed: %v", err)
	}
	var pointA entity.PegPoint
	db.First(&pointA, "config_id = ?", resA.ConfigID)

	reqB := basicSaveRequest("12TB")
	resB, err := svc.Save(ctx, reqB)
	if err != nil {
		t.Fatalf("save B failed: %v", err)
	}

	var pointsBefore int64
	db.Model(&entity.PegPoint{}).Where("config_id = ?", resB.ConfigID).Count(&pointsBefore)

	// one valid new point plus a point that belongs to config A
	reqB.Peg.Points = []service.PointInput{
		{Label: "vendor-new", Channel: "web", Price: 30, Qty: 1, Weight: 1},
		{ID: pointA.ID, Label: "stolen", Channel: "web", Price: 99, Qty: 1, Weight: 1},
	}
	_, err = svc.Save(ctx, reqB)
	if !errors.Is(err, repository.ErrForeignKeyMismatch) {
		t.Fatalf("expected ErrForeignKeyMismatch, got %v", err)
	}

	// transaction rolled back: the valid point must not have been created
	var pointsAfter int64
	db.Model(&entity.PegPoint{}).Where("config_id = ?", resB.ConfigID).Count(&pointsAfter)
	if pointsAfter != pointsBefore {
		t.Errorf("partial write survived rollback: %d -> %d points", pointsBefore, pointsAfter)
	}
}

func TestSaveMarginKeyPrecedence(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	// camelCase wins when both keys are present
	req := basicSaveRequest("4TB")
	req.MarginPercent = fptr(70)
	req.MarginPercentSnake = fptr(30)
	res, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	var cfg entity.PegConfig
	db.First(&cfg, "id = ?", res.ConfigID)
	if cfg.MarginPercent != 70 {
		t.Errorf("expected camelCase margin 70 to win, got %v", cfg.MarginPercent)
	}

	// snake_case used when camelCase is absent
	req2 := basicSaveRequest("8TB")
	req2.MarginPercentSnake = fptr(35)
	res2, err := svc.Save(ctx, req2)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	var cfg2 entity.PegConfig
	db.First(&cfg2, "id = ?", res2.ConfigID)
	if cfg2.MarginPercent != 35 {
		t.Errorf("expected snake_case margin 35, got %v", cfg2.MarginPercent)
	}
}

func TestSaveReplacesModifiersAndSales(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("4TB")
	req.Peg.Sales = []service.SalesInput{
		{DayLabel: "Mon", SalePrice: 11, MarketPrice: 12, Volume: 3},
		{DayLabel: "", SalePrice: 99, MarketPrice: 99, Volume: 1}, // blank label skipped
	}
	res, err := svc.Save(ctx, req)
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	var salesCount int64
	db.Model(&entity.SalesRecord{}).Where("config_id = ?", res.ConfigID).Count(&salesCount)
	if salesCount != 1 {
		t.Errorf("expected 1 sales row (blank label skipped), got %d", salesCount)
	}

	// second save fully replaces modifiers and sales
	req.Peg.Modifiers = []service.ModifierInput{
		{Label: "demand", Amount: 5},
		{Label: "season", Amount: 1},
	}
	req.Peg.Sales = nil
	if _, err := svc.Save(ctx, req); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var modCount int64
	db.Model(&entity.PegModifier{}).Where("config_id = ?", res.ConfigID).Count(&modCount)
	db.Model(&entity.SalesRecord{}).Where("config_id = ?", res.ConfigID).Count(&salesCount)
	if modCount != 2 {
		t.Errorf("expected 2 modifiers after replace, got %d", modCount)
	}
	if salesCount != 0 {
		t.Errorf("expected sales cleared after replace, got %d", salesCount)
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	svc, _ := newPegService(t)

	_, err := svc.LoadConfig(context.Background(), "no-such-config")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadByIdentityNormalizesCase(t *testing.T) {
	svc, _ := newPegService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, basicSaveRequest("4TB")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	detail, err := svc.LoadByIdentity(ctx, "4TB", "SATA", "Used")
	if err != nil {
		t.Fatalf("load by identity failed: %v", err)
	}
	if len(detail.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(detail.Points))
	}
	if len(detail.Modifiers) != 1 {
		t.Errorf("expected 1 modifier, got %d", len(detail.Modifiers))
	}
}

func TestDeleteSnapshotBlockedByHistory(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	res, err := svc.Save(ctx, basicSaveRequest("4TB"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var snap entity.PegSnapshot
	db.First(&snap, "config_id = ?", res.ConfigID)

	err = svc.DeleteSnapshot(ctx, snap.ID)
	if !errors.Is(err, repository.ErrDependencyConflict) {
		t.Fatalf("expected ErrDependencyConflict while history exists, got %v", err)
	}

	// nothing deleted
	var cfgCount, pointCount int64
	db.Model(&entity.PegConfig{}).Where("id = ?", res.ConfigID).Count(&cfgCount)
	db.Model(&entity.PegPoint{}).Where("config_id = ?", res.ConfigID).Count(&pointCount)
	if cfgCount != 1 || pointCount != 2 {
		t.Errorf("rows deleted despite conflict: configs=%d points=%d", cfgCount, pointCount)
	}
}

func TestDeleteSnapshotCascades(t *testing.T) {
	svc, db := newPegService(t)
	ctx := context.Background()

	res, err := svc.Save(ctx, basicSaveRequest("4TB"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// clear point history first, then the delete may proceed
	var pointIDs []string
	db.Model(&entity.PegPoint{}).Where("config_id = ?", res.ConfigID).Pluck("id", &pointIDs)
	db.Where("peg_point_id IN ?", pointIDs).Delete(&entity.PegPointHistory{})

	var snap entity.PegSnapshot
	db.First(&snap, "config_id = ?", res.ConfigID)

	if err := svc.DeleteSnapshot(ctx, snap.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var cfgCount, pointCount, modCount, snapCount int64
	db.Model(&entity.PegConfig{}).Where("id = ?", res.ConfigID).Count(&cfgCount)
	db.Model(&entity.PegPoint{}).Where("config_id = ?", res.ConfigID).Count(&pointCount)
	db.Model(&entity.PegModifier{}).Where("config_id = ?", res.ConfigID).Count(&modCount)
	db.Model(&entity.PegSnapshot{}).Where("config_id = ?", res.ConfigID).Count(&snapCount)
	if cfgCount+pointCount+modCount+snapCount != 0 {
		t.Errorf("cascade incomplete: configs=%d points=%d modifiers=%d snapshots=%d",
			cfgCount, pointCount, modCount, snapCount)
	}
}

func TestDeleteSnapshotNotFound(t *testing.T) {
	svc, _ := newPegService(t)

	err := svc.DeleteSnapshot(context.Background(), "no-such-snapshot")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuyPriceFromLatestSnapshot(t *testing.T) {
	svc, _ := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("4TB")
	req.MarginPercent = fptr(25)
	req.Peg.Points = []service.PointInput{
		{Label: "vendor-a", Channel: "web", Price: 90, Qty: 1, Weight: 1},
	}
	req.Peg.Modifiers = []service.ModifierInput{{Label: "demand", Amount: 10}}
	if _, err := svc.Save(ctx, req); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	res, err := svc.BuyPrice(ctx, "4TB", "sata", "used")
	if err != nil {
		t.Fatalf("buy price failed: %v", err)
	}
	if res.AdjustedPrice != 100 {
		t.Errorf("expected adjusted 100, got %v", res.AdjustedPrice)
	}
	if !almostEqualT(res.BuyLow, 25) || !almostEqualT(res.BuyHigh, 26.25) {
		t.Errorf("expected band [25, 26.25], got [%v, %v]", res.BuyLow, res.BuyHigh)
	}
}

func TestBuyPriceUnknownIdentity(t *testing.T) {
	svc, _ := newPegService(t)

	_, err := svc.BuyPrice(context.Background(), "999TB", "sata", "new")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	svc, _ := newPegService(t)
	ctx := context.Background()

	req := basicSaveRequest("4TB")
	req.Date = daysAgo(2)
	if _, err := svc.Save(ctx, req); err != nil {
		t.Fatalf("save day-2 failed: %v", err)
	}
	req.Date = today()
	if _, err := svc.Save(ctx, req); err != nil {
		t.Fatalf("save today failed: %v", err)
	}

	snaps, err := svc.ListSnapshots(ctx, "4TB")
	if err != nil {
		t.Fatalf("list snapshots failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].DayDate != today() || snaps[1].DayDate != daysAgo(2) {
		t.Errorf("expected newest first, got %s then %s", snaps[0].DayDate, snaps[1].DayDate)
	}
}

func almostEqualT(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
