package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nexthire/internal/database"
	"nexthire/internal/matching"
	"nexthire/internal/store"
)

func newJobHandler(db *gorm.DB) *JobHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(db)
	engine := matching.NewEngine(st, matching.DefaultConfig(), logger)
	return NewJobHandler(db, nil, engine, st, logger)
}

func seedRecruiter(t *testing.T, db *gorm.DB, email string) database.Profile {
	t.Helper()
	profile := database.Profile{Email: email, Role: database.RoleRecruiter}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed recruiter: %v", err)
	}
	return profile
}

func seedJob(t *testing.T, db *gorm.DB, recruiterID uint, skills []string) database.JobPosting {
	t.Helper()
	blob, err := json.Marshal(skills)
	if err != nil {
		t.Fatalf("encode skills: %v", err)
	}
	row := database.JobPosting{
		RecruiterID:     recruiterID,
		Title:           "Backend Engineer",
		RequiredSkills:  blob,
		ExperienceLevel: "mid",
		Status:          "open",
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return row
}

func newJobContext(t *testing.T, method, target string, body []byte, userID uint, jobID uint) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	if jobID != 0 {
		c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(jobID), 10)}}
	}
	return c, w
}

func TestCreateJob_ValidatesLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	recruiter := seedRecruiter(t, db, "create@example.com")
	h := newJobHandler(db)

	body := []byte(`{"title":"Backend","required_skills":["go"],"experience_level":"principal"}`)
	c, w := newJobContext(t, http.MethodPost, "/v1/jobs", body, recruiter.ID, 0)

	h.CreateJob(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown level, got %d", w.Code)
	}
}

func TestCreateJob_DefaultsToOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	recruiter := seedRecruiter(t, db, "open@example.com")
	h := newJobHandler(db)

	body := []byte(`{"title":"Backend","required_skills":["go","redis"],"experience_level":"mid"}`)
	c, w := newJobContext(t, http.MethodPost, "/v1/jobs", body, recruiter.ID, 0)

	h.CreateJob(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var resp jobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "open" {
		t.Fatalf("expected default status open, got %q", resp.Status)
	}
	if len(resp.RequiredSkills) != 2 {
		t.Fatalf("expected skills echoed, got %v", resp.RequiredSkills)
	}
}

func TestGetJob_OwnershipEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	owner := seedRecruiter(t, db, "owner@example.com")
	intruder := seedRecruiter(t, db, "intruder@example.com")
	job := seedJob(t, db, owner.ID, []string{"go"})
	h := newJobHandler(db)

	c, w := newJobContext(t, http.MethodGet, "/v1/jobs/"+strconv.Itoa(int(job.ID)), nil, intruder.ID, job.ID)

	h.GetJob(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetJob_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	recruiter := seedRecruiter(t, db, "missing@example.com")
	h := newJobHandler(db)

	c, w := newJobContext(t, http.MethodGet, "/v1/jobs/999999", nil, recruiter.ID, 999999)

	h.GetJob(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRefreshMatches_SyncComputesAndCaches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	recruiter := seedRecruiter(t, db, "sync@example.com")
	job := seedJob(t, db, recruiter.ID, []string{"go"})

	// 一个符合条件的候选人
	profile := database.Profile{Email: "sync-candidate@example.com", Role: database.RoleCandidate}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed candidate profile: %v", err)
	}
	skills, _ := json.Marshal([]string{"go"})
	years := 1
	candidate := database.CandidateProfile{ProfileID: profile.ID, Skills: skills, ExperienceYears: &years}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}

	h := newJobHandler(db)

	target := "/v1/jobs/" + strconv.Itoa(int(job.ID)) + "/matches?sync=true"
	c, w := newJobContext(t, http.MethodPost, target, nil, recruiter.ID, job.ID)

	h.RefreshMatches(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	rows, err := store.New(db).ListMatches(c.Request.Context(), job.ID)
	if err != nil {
		t.Fatalf("list cached matches: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.CandidateProfileID == candidate.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected candidate %d cached for job %d, got %+v", candidate.ID, job.ID, rows)
	}
}
