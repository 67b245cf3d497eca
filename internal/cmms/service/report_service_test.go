package service

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/liftwise/liftwise/internal/cmms/entity"
)

func testReportService() *ReportService {
	return &ReportService{logger: zap.NewNop()}
}

func yesNoQuestion(id string, order int, severity string) entity.ChecklistQuestion {
	return entity.ChecklistQuestion{
		ID:         id,
		Text:       "Question " + id,
		AnswerType: entity.AnswerTypeYesNo,
		Severity:   severity,
		OrderIndex: order,
	}
}

func TestValidateAnswerValue(t *testing.T) {
	yn := yesNoQuestion("q1", 1, entity.SeverityInfo)
	if reason := validateAnswerValue(&yn, &AnswerInput{QuestionID: "q1", Value: "true"}); reason != "" {
		t.Errorf("Expected valid YES_NO answer, got %q", reason)
	}
	if reason := validateAnswerValue(&yn, &AnswerInput{QuestionID: "q1", Value: "yes"}); reason == "" {
		t.Error("Expected rejection for non true/false YES_NO value")
	}

	num := entity.ChecklistQuestion{ID: "q2", AnswerType: entity.AnswerTypeNumber}
	if reason := validateAnswerValue(&num, &AnswerInput{QuestionID: "q2", Value: "12.5"}); reason != "" {
		t.Errorf("Expected valid NUMBER answer, got %q", reason)
	}
	for _, bad := range []string{"abc", "", "NaN", "+Inf"} {
		if reason := validateAnswerValue(&num, &AnswerInput{QuestionID: "q2", Value: bad}); reason == "" {
			t.Errorf("Expected rejection for NUMBER value %q", bad)
		}
	}

	photo := entity.ChecklistQuestion{ID: "q3", AnswerType: entity.AnswerTypePhoto}
	if reason := validateAnswerValue(&photo, &AnswerInput{QuestionID: "q3"}); reason == "" {
		t.Error("Expected rejection for PHOTO answer without evidence")
	}
	if reason := validateAnswerValue(&photo, &AnswerInput{QuestionID: "q3", EvidenceRef: "evidence/2026/08/abc.jpg"}); reason != "" {
		t.Errorf("Expected valid PHOTO answer, got %q", reason)
	}

	// 任意类型配 requires_evidence 都要求取证
	ynEv := yesNoQuestion("q4", 4, entity.SeverityWarning)
	ynEv.RequiresEvidence = true
	if reason := validateAnswerValue(&ynEv, &AnswerInput{QuestionID: "q4", Value: "false"}); reason == "" {
		t.Error("Expected rejection when required evidence is missing")
	}
}

func TestAnswerFailing(t *testing.T) {
	s := testReportService()

	yn := yesNoQuestion("q1", 1, entity.SeverityCriticalStop)
	if s.answerFailing(&yn, "true") {
		t.Error("true YES_NO answer must not fail")
	}
	if !s.answerFailing(&yn, "false") {
		t.Error("false YES_NO answer must fail")
	}

	num := entity.ChecklistQuestion{
		ID:         "q2",
		AnswerType: entity.AnswerTypeNumber,
		Severity:   entity.SeverityCriticalStop,
		MinValue:   floatPtr(1.5),
		MaxValue:   floatPtr(3.0),
	}
	if s.answerFailing(&num, "2.0") {
		t.Error("In-range NUMBER answer must not fail")
	}
	if !s.answerFailing(&num, "1.2") {
		t.Error("Below-range NUMBER answer must fail")
	}
	if !s.answerFailing(&num, "3.5") {
		t.Error("Above-range NUMBER answer must fail")
	}

	// 未配置范围的 NUMBER 关键题：配置错误，只告警不判失败
	noRange := entity.ChecklistQuestion{
		ID:         "q3",
		AnswerType: entity.AnswerTypeNumber,
		Severity:   entity.SeverityCriticalStop,
	}
	if s.answerFailing(&noRange, "9999") {
		t.Error("NUMBER question without range must never fail")
	}
}

func TestValidateAnswersCollectsAllErrors(t *testing.T) {
	s := testReportService()
	tmpl := &entity.ChecklistTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Questions: []entity.ChecklistQuestion{
			yesNoQuestion("q1", 1, entity.SeverityCriticalStop),
			{ID: "q2", AnswerType: entity.AnswerTypeNumber, Severity: entity.SeverityWarning, OrderIndex: 2},
			{ID: "q3", AnswerType: entity.AnswerTypeText, Severity: entity.SeverityInfo, OrderIndex: 3},
		},
	}

	// q1 值非法、q2 缺答案、q3 空文本、q9 不属于模板
	inputs := []AnswerInput{
		{QuestionID: "q1", Value: "maybe"},
		{QuestionID: "q3", Value: ""},
		{QuestionID: "q9", Value: "x"},
	}

	_, _, _, err := s.validateAnswers(tmpl, inputs)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if len(verr.Fields) != 4 {
		t.Fatalf("Expected 4 field errors, got %d: %v", len(verr.Fields), verr.Fields)
	}
}

func TestValidateAnswersOptionalQuestionMaySkip(t *testing.T) {
	s := testReportService()
	optional := entity.ChecklistQuestion{
		ID:         "q2",
		AnswerType: entity.AnswerTypeText,
		Severity:   entity.SeverityInfo,
		OrderIndex: 2,
		IsOptional: true,
	}
	tmpl := &entity.ChecklistTemplate{
		ID:        "tmpl-1",
		Version:   1,
		Questions: []entity.ChecklistQuestion{yesNoQuestion("q1", 1, entity.SeverityInfo), optional},
	}

	answers, failing, hasCritical, err := s.validateAnswers(tmpl, []AnswerInput{
		{QuestionID: "q1", Value: "true"},
	})
	if err != nil {
		t.Fatalf("Expected valid submission, got %v", err)
	}
	if len(answers) != 1 {
		t.Errorf("Expected 1 answer row, got %d", len(answers))
	}
	if hasCritical || len(failing) != 0 {
		t.Error("Passing submission must not flag critical failure")
	}
}

func TestValidateAnswersCriticalFailure(t *testing.T) {
	s := testReportService()
	tmpl := &entity.ChecklistTemplate{
		ID:      "tmpl-1",
		Version: 1,
		Questions: []entity.ChecklistQuestion{
			yesNoQuestion("q1", 1, entity.SeverityCriticalStop),
			yesNoQuestion("q2", 2, entity.SeverityWarning),
		},
	}

	answers, failing, hasCritical, err := s.validateAnswers(tmpl, []AnswerInput{
		{QuestionID: "q1", Value: "false"},
		{QuestionID: "q2", Value: "false"},
	})
	if err != nil {
		t.Fatalf("Expected valid submission, got %v", err)
	}
	if !hasCritical {
		t.Error("false answer on CRITICAL_STOP question must set critical flag")
	}
	// 只有关键题进入升级清单，WARNING 失败只记录
	if len(failing) != 1 || failing[0].ID != "q1" {
		t.Errorf("Expected only q1 in failing set, got %v", failing)
	}
	for _, a := range answers {
		if !a.IsFailing {
			t.Errorf("Answer %s expected to be marked failing", a.QuestionID)
		}
	}
}
