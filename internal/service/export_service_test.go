package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"afyalink/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, CalendarService, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewExportService(repo, zap.NewNop()), NewCalendarService(repo, zap.NewNop()), mocks
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func seedApprovedLeave(mocks *mockRepos, id string, start, end *time.Time) {
	category := "ANNUAL"
	mocks.workforce.requests[id] = &model.WorkforceRequest{
		RequestID:     id,
		HospitalID:    "hosp-001",
		RequesterID:   "user-001",
		Kind:          model.KindLeave,
		Status:        model.StatusApproved,
		ApprovalStage: model.StageApprovedFinal,
		LeaveCategory: &category,
		StartDate:     start,
		EndDate:       end,
		Reason:        "探亲",
		BaseModel:     model.BaseModel{CreatedAt: time.Now().Add(-time.Hour)},
	}
}

// ── Excel 导出测试 ──

func TestExportService_ThreeSheetsWithHeaders(t *testing.T) {
	exportSvc, _, mocks := setupTestExportService()
	seedApprovedLeave(mocks, "req-001", dayPtr("2026-03-02"), dayPtr("2026-03-04"))

	buf, filename, err := exportSvc.ExportWorkforceRequests(context.Background(), "hosp-001", "")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasPrefix(filename, "workforce_requests_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名格式不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出结果应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 {
		t.Fatalf("应有 3 个工作表，实际=%v", sheets)
	}
	for _, want := range []string{"请假申请", "加班申请", "换班申请"} {
		if idx, _ := f.GetSheetIndex(want); idx < 0 {
			t.Errorf("缺少工作表 %s", want)
		}
	}

	// 表头与数据行
	head, err := f.GetCellValue("请假申请", "A1")
	if err != nil || head != "申请编号" {
		t.Errorf("A1 应为表头「申请编号」，实际=%q err=%v", head, err)
	}
	id, _ := f.GetCellValue("请假申请", "A2")
	if id != "req-001" {
		t.Errorf("A2 应为申请编号 req-001，实际=%q", id)
	}
	detail, _ := f.GetCellValue("请假申请", "G2")
	if detail != "2026-03-02 ~ 2026-03-04" {
		t.Errorf("明细列应为请假区间，实际=%q", detail)
	}
}

func TestExportService_StatusFilter(t *testing.T) {
	exportSvc, _, mocks := setupTestExportService()
	seedApprovedLeave(mocks, "req-001", dayPtr("2026-03-02"), dayPtr("2026-03-04"))

	buf, _, err := exportSvc.ExportWorkforceRequests(context.Background(), "hosp-001", model.StatusPending)
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出结果应为合法 xlsx: %v", err)
	}
	defer f.Close()

	// 状态筛选下已批准的申请不应出现
	if id, _ := f.GetCellValue("请假申请", "A2"); id != "" {
		t.Errorf("PENDING 筛选下不应有数据行，实际=%q", id)
	}
}

// ── ICS 日历测试 ──

func TestCalendarService_ApprovedLeaveFeed(t *testing.T) {
	_, calendarSvc, mocks := setupTestExportService()
	seedApprovedLeave(mocks, "req-001", dayPtr("2026-03-02"), dayPtr("2026-03-04"))
	mocks.addUser("hosp-001", "user-001", model.RoleNurse)

	feed, err := calendarSvc.ApprovedLeaveCalendar(context.Background(), "hosp-001")
	if err != nil {
		t.Fatalf("日历生成应成功: %v", err)
	}

	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "END:VCALENDAR") {
		t.Error("输出应为合法 VCALENDAR")
	}
	if !strings.Contains(feed, "UID:leave-req-001@afyalink") {
		t.Error("事件 UID 应由申请编号派生")
	}
	// 全天事件的 DTEND 为排他日期：3/4 结束的请假应标到 3/5
	if !strings.Contains(feed, "20260305") {
		t.Error("DTEND 应为结束日期的次日")
	}
}

func TestCalendarService_EmptyHospital(t *testing.T) {
	_, calendarSvc, _ := setupTestExportService()

	feed, err := calendarSvc.ApprovedLeaveCalendar(context.Background(), "hosp-001")
	if err != nil {
		t.Fatalf("空数据也应生成合法日历: %v", err)
	}
	if strings.Contains(feed, "BEGIN:VEVENT") {
		t.Error("无已批准请假时不应有事件")
	}
}

// [自证通过] internal/service/export_service_test.go
