package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jjzperilla/pegeditor/internal/peg/repository"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var snapshotExportHeaders = []string{
	"Date", "Capacity", "Interface", "Condition", "Peg Name",
	"Base Price", "Adjusted Price", "Margin %", "Buy Low", "Buy High", "Inventory Mode",
}

// ExportService 审计快照的xlsx导出；配置了对象存储时顺带归档一份
type ExportService struct {
	snapshots   *repository.SnapshotRepository
	minioClient *minio.Client
	bucket      string
	logger      *zap.Logger
}

// NewExportService 创建导出服务；minioClient可为nil（未配置对象存储）
func NewExportService(snapshots *repository.SnapshotRepository, minioClient *minio.Client, bucket string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		snapshots:   snapshots,
		minioClient: minioClient,
		bucket:      bucket,
		logger:      logger,
	}
}

// SnapshotWorkbook 生成容量快照流的xlsx工作簿，一行一条快照
func (s *ExportService) SnapshotWorkbook(ctx context.Context, capacity string) (*excelize.File, error) {
	snaps, err := s.snapshots.ListByCapacity(ctx, capacity)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Peg History"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range snapshotExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	colWidths := []float64{12, 10, 10, 12, 20, 12, 14, 10, 10, 10, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	for i, snap := range snaps {
		low, high := BuyBand(snap.AdjustedPrice, snap.MarginPercent)
		row := i + 2
		values := []interface{}{
			snap.DayDate, snap.Capacity, snap.Interface, snap.ConditionType, snap.PegName,
			snap.BasePrice, snap.AdjustedPrice, snap.MarginPercent, round2(low), round2(high), snap.InventoryMode,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	return f, nil
}

// Archive 将工作簿归档到对象存储；未配置时为空操作
func (s *ExportService) Archive(ctx context.Context, f *excelize.File, capacity string) {
	if s.minioClient == nil {
		return
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Warn("export archive: serialize failed", zap.Error(err))
		return
	}

	objectName := fmt.Sprintf("peg-exports/%s-%s.xlsx", capacity, time.Now().Format("20060102-150405"))
	_, err = s.minioClient.PutObject(ctx, s.bucket, objectName, buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		s.logger.Warn("export archive: upload failed", zap.Error(err), zap.String("object", objectName))
		return
	}
	s.logger.Info("export archived", zap.String("object", objectName))
}
