package service

import (
	"errors"
	"testing"

	"github.com/liftwise/liftwise/internal/cmms/entity"
)

func TestValidateQuestions(t *testing.T) {
	valid := []QuestionInput{
		{Text: "Brakes work", AnswerType: entity.AnswerTypeYesNo, Severity: entity.SeverityCriticalStop, OrderIndex: 1},
		{Text: "Tire pressure", AnswerType: entity.AnswerTypeNumber, Severity: entity.SeverityWarning, OrderIndex: 2, MinValue: floatPtr(7), MaxValue: floatPtr(9)},
		{Text: "Remarks", AnswerType: entity.AnswerTypeText, Severity: entity.SeverityInfo, OrderIndex: 3, IsOptional: true},
	}
	if err := validateQuestions(valid); err != nil {
		t.Fatalf("Expected valid questions, got %v", err)
	}

	if err := validateQuestions(nil); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for empty set, got %v", err)
	}

	badType := []QuestionInput{{Text: "x", AnswerType: "CHOICE", Severity: entity.SeverityInfo, OrderIndex: 1}}
	if err := validateQuestions(badType); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for unknown answer type, got %v", err)
	}

	// CRITICAL_STOP 必须能机器判定
	criticalText := []QuestionInput{{Text: "x", AnswerType: entity.AnswerTypeText, Severity: entity.SeverityCriticalStop, OrderIndex: 1}}
	if err := validateQuestions(criticalText); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for CRITICAL_STOP TEXT question, got %v", err)
	}
	criticalPhoto := []QuestionInput{{Text: "x", AnswerType: entity.AnswerTypePhoto, Severity: entity.SeverityCriticalStop, OrderIndex: 1}}
	if err := validateQuestions(criticalPhoto); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for CRITICAL_STOP PHOTO question, got %v", err)
	}

	rangeOnYesNo := []QuestionInput{{Text: "x", AnswerType: entity.AnswerTypeYesNo, Severity: entity.SeverityInfo, OrderIndex: 1, MinValue: floatPtr(1)}}
	if err := validateQuestions(rangeOnYesNo); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for range on YES_NO question, got %v", err)
	}

	invertedRange := []QuestionInput{{Text: "x", AnswerType: entity.AnswerTypeNumber, Severity: entity.SeverityInfo, OrderIndex: 1, MinValue: floatPtr(9), MaxValue: floatPtr(7)}}
	if err := validateQuestions(invertedRange); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for inverted range, got %v", err)
	}

	dupOrder := []QuestionInput{
		{Text: "a", AnswerType: entity.AnswerTypeYesNo, Severity: entity.SeverityInfo, OrderIndex: 1},
		{Text: "b", AnswerType: entity.AnswerTypeYesNo, Severity: entity.SeverityInfo, OrderIndex: 1},
	}
	if err := validateQuestions(dupOrder); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected ErrInvalidQuestion for duplicate order index, got %v", err)
	}
}

func TestBuildQuestions(t *testing.T) {
	inputs := []QuestionInput{
		{Text: "Horn works", AnswerType: entity.AnswerTypeYesNo, Severity: entity.SeverityWarning, OrderIndex: 1, RequiresEvidence: true},
	}
	questions := buildQuestions("tmpl-1", inputs)
	if len(questions) != 1 {
		t.Fatalf("Expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.ID == "" {
		t.Error("Question ID must be generated")
	}
	if q.TemplateID != "tmpl-1" {
		t.Errorf("Expected template id tmpl-1, got %s", q.TemplateID)
	}
	if !q.RequiresEvidence {
		t.Error("RequiresEvidence flag must carry over")
	}
}
