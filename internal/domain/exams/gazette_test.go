package exams

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScale(t *testing.T) *GradingScale {
	t.Helper()
	scale, err := NewGradingScale(uuid.New(), "A-F", GradeBands{
		{Grade: "A", MinPercent: decimal.NewFromInt(80), MaxPercent: decimal.NewFromInt(100), Remark: "Excellent"},
		{Grade: "B", MinPercent: decimal.NewFromInt(70), MaxPercent: decimal.NewFromFloat(79.99)},
		{Grade: "C", MinPercent: decimal.NewFromInt(60), MaxPercent: decimal.NewFromFloat(69.99)},
		{Grade: "F", MinPercent: decimal.NewFromInt(0), MaxPercent: decimal.NewFromFloat(59.99), Remark: "Fail"},
	})
	require.NoError(t, err)
	return scale
}

func TestNewGradingScale(t *testing.T) {
	t.Run("rejects empty bands", func(t *testing.T) {
		_, err := NewGradingScale(uuid.New(), "Empty", GradeBands{})
		assert.Error(t, err)
	})

	t.Run("rejects overlapping bands", func(t *testing.T) {
		_, err := NewGradingScale(uuid.New(), "Overlap", GradeBands{
			{Grade: "A", MinPercent: decimal.NewFromInt(70), MaxPercent: decimal.NewFromInt(100)},
			{Grade: "B", MinPercent: decimal.NewFromInt(60), MaxPercent: decimal.NewFromInt(75)},
		})
		assert.Error(t, err)
	})

	t.Run("rejects inverted band", func(t *testing.T) {
		_, err := NewGradingScale(uuid.New(), "Inverted", GradeBands{
			{Grade: "A", MinPercent: decimal.NewFromInt(90), MaxPercent: decimal.NewFromInt(80)},
		})
		assert.Error(t, err)
	})
}

func TestGradingScaleClassify(t *testing.T) {
	scale := testScale(t)

	t.Run("boundary values fall in the right band", func(t *testing.T) {
		assert.Equal(t, "A", scale.Classify(decimal.NewFromInt(80)).Grade)
		assert.Equal(t, "A", scale.Classify(decimal.NewFromInt(100)).Grade)
		assert.Equal(t, "B", scale.Classify(decimal.NewFromFloat(79.99)).Grade)
		assert.Equal(t, "F", scale.Classify(decimal.Zero).Grade)
	})

	t.Run("uncovered percentage returns nil", func(t *testing.T) {
		assert.Nil(t, scale.Classify(decimal.NewFromInt(101)))
	})
}

func TestBuildGazetteRow(t *testing.T) {
	tenantID := uuid.New()
	examID := uuid.New()
	studentID := uuid.New()
	scale := testScale(t)

	newMark := func(t *testing.T, subject string, score, max int64) Mark {
		t.Helper()
		m, err := NewMark(tenantID, examID, studentID, uuid.New(), subject, decimal.NewFromInt(score), decimal.NewFromInt(max))
		require.NoError(t, err)
		return *m
	}

	t.Run("totals percentage and grade", func(t *testing.T) {
		marks := []Mark{
			newMark(t, "Mathematics", 90, 100),
			newMark(t, "English", 70, 100),
			newMark(t, "Science", 80, 100),
		}

		row := BuildGazetteRow(studentID, "Asha Nakate", "ADM-0042", marks, scale)

		assert.True(t, row.Total.Equal(decimal.NewFromInt(240)))
		assert.True(t, row.MaxTotal.Equal(decimal.NewFromInt(300)))
		assert.True(t, row.Percentage.Equal(decimal.NewFromInt(80)))
		assert.Equal(t, "A", row.Grade)
		assert.Equal(t, "Excellent", row.Remark)
		assert.Len(t, row.Subjects, 3)
	})

	t.Run("no marks yields zero totals", func(t *testing.T) {
		row := BuildGazetteRow(studentID, "Brian Okello", "ADM-0043", nil, scale)

		assert.True(t, row.Total.IsZero())
		assert.True(t, row.Percentage.IsZero())
		// zero percent still classifies against the scale
		assert.Equal(t, "F", row.Grade)
	})

	t.Run("nil scale leaves row ungraded", func(t *testing.T) {
		marks := []Mark{newMark(t, "Mathematics", 50, 100)}
		row := BuildGazetteRow(studentID, "Clara", "ADM-0044", marks, nil)
		assert.Equal(t, UngradedLabel, row.Grade)
	})

	t.Run("percentage rounds to two places", func(t *testing.T) {
		marks := []Mark{newMark(t, "Mathematics", 1, 3)}
		row := BuildGazetteRow(studentID, "Dana", "ADM-0045", marks, scale)
		assert.True(t, row.Percentage.Equal(decimal.NewFromFloat(33.33)))
	})
}

func TestNewMark(t *testing.T) {
	tenantID := uuid.New()

	t.Run("rejects score above max", func(t *testing.T) {
		_, err := NewMark(tenantID, uuid.New(), uuid.New(), uuid.New(), "Math", decimal.NewFromInt(110), decimal.NewFromInt(100))
		assert.Error(t, err)
	})

	t.Run("rejects negative score", func(t *testing.T) {
		_, err := NewMark(tenantID, uuid.New(), uuid.New(), uuid.New(), "Math", decimal.NewFromInt(-1), decimal.NewFromInt(100))
		assert.Error(t, err)
	})

	t.Run("rejects zero max score", func(t *testing.T) {
		_, err := NewMark(tenantID, uuid.New(), uuid.New(), uuid.New(), "Math", decimal.Zero, decimal.Zero)
		assert.Error(t, err)
	})
}
