package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/hirehub/internal/auth/password"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	"github.com/smallbiznis/hirehub/internal/clock"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	jobdomain "github.com/smallbiznis/hirehub/internal/job/domain"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	"github.com/smallbiznis/hirehub/internal/onboarding/domain"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	verificationdomain "github.com/smallbiznis/hirehub/internal/verification/domain"
	"github.com/smallbiznis/hirehub/pkg/db"
	"github.com/smallbiznis/hirehub/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	fallbackSlug   = "employer"
	maxSlugLength  = 60
	slugRetryLimit = 3
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	EmployerRepo     employerdomain.Repository
	JobRepo          jobdomain.Repository
	VerificationRepo verificationdomain.Repository
	PlanSvc          plandomain.Service
	BillingSvc       billingdomain.Service
	ObsMetrics       *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	employers     employerdomain.Repository
	jobs          jobdomain.Repository
	verifications verificationdomain.Repository
	plans         plandomain.Service
	billing       billingdomain.Service
	obsMetrics    *obsmetrics.Metrics
	validate      *validation.Validator
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("onboarding.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		employers:     p.EmployerRepo,
		jobs:          p.JobRepo,
		verifications: p.VerificationRepo,
		plans:         p.PlanSvc,
		billing:       p.BillingSvc,
		obsMetrics:    p.ObsMetrics,
		validate:      validation.New(),
	}
}

func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.CreateAccountResponse, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.AdminName = strings.TrimSpace(req.AdminName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Website = strings.TrimSpace(req.Website)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	taken, err := s.employers.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, employerdomain.ErrEmailTaken
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	adminName := req.AdminName
	if adminName == "" {
		adminName = req.DisplayName
	}
	base := baseSlug(req.DisplayName)

	var employer employerdomain.Employer
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.employers.WithTx(tx)

			existing, err := repo.ListSlugsWithPrefix(ctx, base)
			if err != nil {
				return err
			}

			now := s.clock.Now()
			employer = employerdomain.Employer{
				ID:             s.genID.Generate(),
				Slug:           nextSlug(base, existing),
				DisplayName:    req.DisplayName,
				LegalName:      req.CompanyName,
				Website:        req.Website,
				OnboardingStep: employerdomain.StepAccount,
				BillingStatus:  billingdomain.StatusNone,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := repo.Create(ctx, employer); err != nil {
				return err
			}

			if err := repo.CreateAdmin(ctx, employerdomain.Admin{
				ID:           s.genID.Generate(),
				EmployerID:   employer.ID,
				Email:        req.Email,
				PasswordHash: hash,
				Name:         adminName,
				Role:         employerdomain.RoleOwner,
				CreatedAt:    now,
			}); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return employerdomain.ErrEmailTaken
				}
				return err
			}
			return nil
		})
		if err == nil {
			break
		}
		// A concurrent signup can claim the same slug between listing and insert.
		if db.IsDuplicateKeyErr(err) && attempt+1 < slugRetryLimit {
			continue
		}
		return nil, err
	}

	s.log.Info("employer account created",
		zap.String("employer_id", employer.ID.String()),
		zap.String("slug", employer.Slug),
	)

	return &domain.CreateAccountResponse{
		EmployerID: employer.ID.String(),
		Slug:       employer.Slug,
	}, nil
}

func (s *Service) UpsertProfile(ctx context.Context, employerID string, req domain.ProfileRequest) error {
	id, err := parseEmployerID(employerID)
	if err != nil {
		return err
	}
	if err := s.validate.Struct(req); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.employers.WithTx(tx)
		employer, err := s.lockEmployer(ctx, repo, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		profile := employerdomain.Profile{
			EmployerID:  employer.ID,
			Industry:    strings.TrimSpace(req.Industry),
			Size:        strings.TrimSpace(req.Size),
			Description: strings.TrimSpace(req.Description),
			Address:     strings.TrimSpace(req.Address),
			City:        strings.TrimSpace(req.City),
			Country:     strings.TrimSpace(req.Country),
			Phone:       strings.TrimSpace(req.Phone),
			LogoURL:     strings.TrimSpace(req.LogoURL),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.UpsertProfile(ctx, profile); err != nil {
			return err
		}
		_, err = advance(ctx, repo, employer, employerdomain.StepPackage, now)
		return err
	})
}

func (s *Service) ChoosePlan(ctx context.Context, employerID string, req domain.ChoosePlanRequest) (*domain.ChoosePlanResponse, error) {
	id, err := parseEmployerID(employerID)
	if err != nil {
		return nil, err
	}
	req.Plan = strings.TrimSpace(req.Plan)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	plan, err := s.plans.Resolve(ctx, req.Plan)
	if err != nil {
		return nil, err
	}

	var (
		decision *billingdomain.Decision
		step     employerdomain.Step
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.employers.WithTx(tx)
		employer, err := s.lockEmployer(ctx, repo, id)
		if err != nil {
			return err
		}

		decision, err = s.billing.Decide(ctx, tx, employer.ID, *plan)
		if err != nil {
			return err
		}
		step, err = advance(ctx, repo, employer, employerdomain.StepJob, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordPlanDecision(ctx, string(decision.Mode))
	s.log.Info("plan chosen",
		zap.String("employer_id", id.String()),
		zap.String("plan", plan.Slug),
		zap.String("mode", string(decision.Mode)),
		zap.Bool("unchanged", decision.Unchanged),
	)

	return &domain.ChoosePlanResponse{
		Mode:          string(decision.Mode),
		PlanID:        decision.PlanID.String(),
		BillingStatus: string(decision.Status),
		TrialEndsAt:   decision.TrialEndsAt,
		PremiumUntil:  decision.PremiumUntil,
		Step:          string(step),
	}, nil
}

func (s *Service) CreateDraftJob(ctx context.Context, employerID string, req domain.DraftJobRequest) (*domain.DraftJobResponse, error) {
	id, err := parseEmployerID(employerID)
	if err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMax < *req.SalaryMin {
		return nil, validation.NewFieldError("salary_max", "must be greater than or equal to salary_min")
	}

	var jobID snowflake.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.employers.WithTx(tx)
		jobs := s.jobs.WithTx(tx)

		employer, err := s.lockEmployer(ctx, repo, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		job := jobdomain.Job{
			EmployerID:     employer.ID,
			Title:          req.Title,
			Description:    strings.TrimSpace(req.Description),
			Location:       strings.TrimSpace(req.Location),
			EmploymentType: req.EmploymentType,
			SalaryMin:      req.SalaryMin,
			SalaryMax:      req.SalaryMax,
			UpdatedAt:      now,
		}

		existing, err := jobs.FindDraftByTitle(ctx, employer.ID, req.Title)
		if err != nil {
			return err
		}
		if existing != nil {
			job.ID = existing.ID
			if err := jobs.UpdateDraft(ctx, job); err != nil {
				return err
			}
		} else {
			job.ID = s.genID.Generate()
			job.CreatedAt = now
			if err := jobs.Insert(ctx, job); err != nil {
				return err
			}
		}
		jobID = job.ID

		_, err = advance(ctx, repo, employer, employerdomain.StepVerify, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.DraftJobResponse{JobID: jobID.String()}, nil
}

func (s *Service) SubmitVerification(ctx context.Context, employerID string, req domain.VerificationRequest) (*domain.VerificationResponse, error) {
	id, err := parseEmployerID(employerID)
	if err != nil {
		return nil, err
	}
	req.Note = strings.TrimSpace(req.Note)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	fingerprint := verificationFingerprint(req)

	var requestID snowflake.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.employers.WithTx(tx)
		verifications := s.verifications.WithTx(tx)

		employer, err := s.lockEmployer(ctx, repo, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		existing, err := verifications.FindPending(ctx, employer.ID, fingerprint)
		if err != nil {
			return err
		}
		if existing != nil {
			requestID = existing.ID
			_, err = advance(ctx, repo, employer, employerdomain.StepDone, now)
			return err
		}

		request := verificationdomain.Request{
			ID:          s.genID.Generate(),
			EmployerID:  employer.ID,
			Note:        req.Note,
			Status:      verificationdomain.StatusPending,
			Fingerprint: fingerprint,
			CreatedAt:   now,
		}
		if err := verifications.CreateRequest(ctx, request); err != nil {
			return err
		}

		files := make([]verificationdomain.File, 0, len(req.Files))
		for _, in := range req.Files {
			files = append(files, verificationdomain.File{
				ID:         s.genID.Generate(),
				RequestID:  request.ID,
				StorageKey: fmt.Sprintf("verification/%s/%s", employer.ID.String(), ulid.Make().String()),
				FileName:   strings.TrimSpace(in.FileName),
				URL:        strings.TrimSpace(in.URL),
				MimeType:   strings.TrimSpace(in.MimeType),
				SizeBytes:  in.SizeBytes,
				CreatedAt:  now,
			})
		}
		if err := verifications.CreateFiles(ctx, files); err != nil {
			return err
		}
		requestID = request.ID

		_, err = advance(ctx, repo, employer, employerdomain.StepDone, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.VerificationResponse{VerificationID: requestID.String()}, nil
}

func (s *Service) GetEmployer(ctx context.Context, employerID string) (*domain.EmployerView, error) {
	id, err := parseEmployerID(employerID)
	if err != nil {
		return nil, err
	}

	employer, err := s.employers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if employer == nil {
		return nil, employerdomain.ErrEmployerNotFound
	}

	profile, err := s.employers.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &domain.EmployerView{
		ID:             employer.ID.String(),
		Slug:           employer.Slug,
		DisplayName:    employer.DisplayName,
		LegalName:      employer.LegalName,
		Website:        employer.Website,
		OnboardingStep: string(employer.OnboardingStep),
		BillingStatus:  string(employer.BillingStatus),
		TrialEndsAt:    employer.TrialEndsAt,
		PremiumUntil:   employer.PremiumUntil,
	}
	if employer.CurrentPlanID != nil {
		view.CurrentPlanID = employer.CurrentPlanID.String()
	}
	if profile != nil {
		view.Profile = &domain.ProfileView{
			Industry:    profile.Industry,
			Size:        profile.Size,
			Description: profile.Description,
			Address:     profile.Address,
			City:        profile.City,
			Country:     profile.Country,
			Phone:       profile.Phone,
			LogoURL:     profile.LogoURL,
		}
	}
	return view, nil
}

func (s *Service) lockEmployer(ctx context.Context, repo employerdomain.Repository, id snowflake.ID) (*employerdomain.Employer, error) {
	employer, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if employer == nil {
		return nil, employerdomain.ErrEmployerNotFound
	}
	return employer, nil
}

// advance moves the employer to target unless it is already further along.
func advance(ctx context.Context, repo employerdomain.Repository, employer *employerdomain.Employer, target employerdomain.Step, now time.Time) (employerdomain.Step, error) {
	next := employer.OnboardingStep.Advance(target)
	if next == employer.OnboardingStep {
		return next, nil
	}
	if err := repo.UpdateStep(ctx, employer.ID, next, now); err != nil {
		return "", err
	}
	employer.OnboardingStep = next
	return next, nil
}

func parseEmployerID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidEmployerID
	}
	return id, nil
}

func baseSlug(name string) string {
	base := slug.Make(name)
	if len(base) > maxSlugLength {
		base = strings.Trim(base[:maxSlugLength], "-")
	}
	if base == "" {
		return fallbackSlug
	}
	return base
}

// nextSlug returns base, or base-N with the smallest N >= 1 not in taken.
func nextSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

func verificationFingerprint(req domain.VerificationRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Note))
	for _, f := range req.Files {
		fmt.Fprintf(h, "\x00%s\x00%s\x00%s\x00%d",
			strings.TrimSpace(f.FileName),
			strings.TrimSpace(f.URL),
			strings.TrimSpace(f.MimeType),
			f.SizeBytes,
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
