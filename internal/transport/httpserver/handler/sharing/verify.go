package sharing

import (
	"errors"
	"net/http"
	"time"

	childdomain "child-growth-go/internal/domain/child"
	sharingdomain "child-growth-go/internal/domain/sharing"
	"github.com/go-chi/chi/v5"
)

type verifyRequest struct {
	AccessCode string `json:"access_code" validate:"max=32"`
}

type childResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth"`
	Gender      *string   `json:"gender"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type measurementResponse struct {
	ID              string   `json:"id"`
	MeasurementDate string   `json:"measurement_date"`
	WeightKg        *float64 `json:"weight_kg"`
	HeightCm        *float64 `json:"height_cm"`
	BMI             *float64 `json:"bmi"`
	Notes           *string  `json:"notes"`
}

type milestoneResponse struct {
	ID             string  `json:"id"`
	Category       string  `json:"category"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	AgeRangeMonths *string `json:"age_range_months"`
	IsAchieved     bool    `json:"is_achieved"`
	AchievedDate   *string `json:"achieved_date"`
	Notes          *string `json:"notes"`
}

type snapshotResponse struct {
	Child              childResponse         `json:"child"`
	GrowthMeasurements []measurementResponse `json:"growth_measurements"`
	Milestones         []milestoneResponse   `json:"milestones"`
}

// Verify is public: the token and access code are the only credentials.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req verifyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	snapshot, err := h.Sharing.Verify(r.Context(), token, req.AccessCode)
	if err != nil {
		switch {
		case errors.Is(err, sharingdomain.ErrInvalidCredentials):
			h.log.BusinessError("sharing.verify: invalid credentials", err)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid share link or access code")
		case errors.Is(err, sharingdomain.ErrExpired):
			h.log.BusinessError("sharing.verify: link expired", err)
			writeError(w, http.StatusGone, "share_link_expired", "share link has expired")
		case errors.Is(err, sharingdomain.ErrTooManyAttempts):
			h.log.BusinessError("sharing.verify: too many attempts", err)
			writeError(w, http.StatusTooManyRequests, "too_many_attempts", "too many attempts, try again later")
		default:
			h.log.InternalError("sharing.verify: verify failed", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

func toSnapshotResponse(snapshot *childdomain.Snapshot) snapshotResponse {
	measurements := make([]measurementResponse, 0, len(snapshot.Measurements))
	for _, m := range snapshot.Measurements {
		measurements = append(measurements, measurementResponse{
			ID:              m.ID,
			MeasurementDate: m.MeasurementDate.Format("2006-01-02"),
			WeightKg:        m.WeightKg,
			HeightCm:        m.HeightCm,
			BMI:             m.BMI,
			Notes:           m.Notes,
		})
	}

	milestones := make([]milestoneResponse, 0, len(snapshot.Milestones))
	for _, m := range snapshot.Milestones {
		var achieved *string
		if m.AchievedDate != nil {
			value := m.AchievedDate.Format("2006-01-02")
			achieved = &value
		}
		milestones = append(milestones, milestoneResponse{
			ID:             m.ID,
			Category:       m.Category,
			Title:          m.Title,
			Description:    m.Description,
			AgeRangeMonths: m.AgeRangeMonths,
			IsAchieved:     m.IsAchieved,
			AchievedDate:   achieved,
			Notes:          m.Notes,
		})
	}

	return snapshotResponse{
		Child: childResponse{
			ID:          snapshot.Child.ID,
			Name:        snapshot.Child.Name,
			DateOfBirth: snapshot.Child.DateOfBirth.Format("2006-01-02"),
			Gender:      snapshot.Child.Gender,
			AvatarURL:   snapshot.Child.AvatarURL,
			CreatedAt:   snapshot.Child.CreatedAt,
		},
		GrowthMeasurements: measurements,
		Milestones:         milestones,
	}
}
