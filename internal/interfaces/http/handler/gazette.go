package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	examsapp "github.com/schoolerp/backend/internal/application/exams"
	domexams "github.com/schoolerp/backend/internal/domain/exams"
)

// GazetteHandler handles exam gazette API endpoints
type GazetteHandler struct {
	BaseHandler
	gazetteService *examsapp.GazetteService
}

// NewGazetteHandler creates a new GazetteHandler
func NewGazetteHandler(gazetteService *examsapp.GazetteService) *GazetteHandler {
	return &GazetteHandler{gazetteService: gazetteService}
}

// GazetteQuery selects the exam and grading scale for a class gazette
type GazetteQuery struct {
	ExamID  string `form:"exam_id" binding:"required,uuid"`
	ScaleID string `form:"scale_id" binding:"required,uuid"`
}

// SubjectResultResponse is one subject's score in a gazette row
type SubjectResultResponse struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
}

// GazetteRowResponse is one student's line on the result sheet
type GazetteRowResponse struct {
	StudentID   string                  `json:"student_id"`
	StudentName string                  `json:"student_name"`
	AdmissionNo string                  `json:"admission_no"`
	Subjects    []SubjectResultResponse `json:"subjects"`
	Total       float64                 `json:"total"`
	MaxTotal    float64                 `json:"max_total"`
	Percentage  float64                 `json:"percentage"`
	Grade       string                  `json:"grade"`
	Remark      string                  `json:"remark,omitempty"`
}

// GazetteResponse is the full class result sheet for one exam
type GazetteResponse struct {
	ExamID   string               `json:"exam_id"`
	ExamName string               `json:"exam_name"`
	Rows     []GazetteRowResponse `json:"rows"`
}

func toGazetteRowResponse(row *domexams.GazetteRow) GazetteRowResponse {
	subjects := make([]SubjectResultResponse, 0, len(row.Subjects))
	for _, subject := range row.Subjects {
		subjects = append(subjects, SubjectResultResponse{
			SubjectID:   subject.SubjectID.String(),
			SubjectName: subject.SubjectName,
			Score:       subject.Score.InexactFloat64(),
			MaxScore:    subject.MaxScore.InexactFloat64(),
		})
	}
	return GazetteRowResponse{
		StudentID:   row.StudentID.String(),
		StudentName: row.StudentName,
		AdmissionNo: row.AdmissionNo,
		Subjects:    subjects,
		Total:       row.Total.InexactFloat64(),
		MaxTotal:    row.MaxTotal.InexactFloat64(),
		Percentage:  row.Percentage.InexactFloat64(),
		Grade:       row.Grade,
		Remark:      row.Remark,
	}
}

func toGazetteResponse(gazette *examsapp.Gazette) GazetteResponse {
	rows := make([]GazetteRowResponse, 0, len(gazette.Rows))
	for i := range gazette.Rows {
		rows = append(rows, toGazetteRowResponse(&gazette.Rows[i]))
	}
	return GazetteResponse{
		ExamID:   gazette.ExamID.String(),
		ExamName: gazette.ExamName,
		Rows:     rows,
	}
}

// GetGazette godoc
// @Summary      Build the ranked result sheet for a class exam
// @Tags         exams
// @Produce      json
// @Param        id path string true "Class ID" format(uuid)
// @Param        exam_id query string true "Exam ID" format(uuid)
// @Param        scale_id query string true "Grading scale ID" format(uuid)
// @Success      200 {object} dto.Response{data=GazetteResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /exams/classes/{id}/gazette [get]
func (h *GazetteHandler) GetGazette(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	if _, err := uuid.Parse(c.Param("id")); err != nil {
		h.BadRequest(c, "Invalid class ID format")
		return
	}

	var query GazetteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	examID, err := uuid.Parse(query.ExamID)
	if err != nil {
		h.BadRequest(c, "Invalid exam ID format")
		return
	}
	scaleID, err := uuid.Parse(query.ScaleID)
	if err != nil {
		h.BadRequest(c, "Invalid scale ID format")
		return
	}

	gazette, err := h.gazetteService.BuildGazette(c.Request.Context(), tenantID, examID, scaleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toGazetteResponse(gazette))
}

// RegisterRoutes registers all exam gazette routes
func (h *GazetteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	exams := rg.Group("/exams")
	{
		exams.GET("/classes/:id/gazette", h.GetGazette)
	}
}
