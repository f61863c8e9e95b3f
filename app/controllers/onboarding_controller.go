package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/launchcrm/launchcrm/app/models"
	"github.com/launchcrm/launchcrm/app/repository"
	"github.com/launchcrm/launchcrm/internal/pkg/database"
	"github.com/launchcrm/launchcrm/internal/pkg/env"
	"github.com/launchcrm/launchcrm/internal/pkg/hcaptcha"
	"github.com/launchcrm/launchcrm/internal/pkg/mail"
	"github.com/launchcrm/launchcrm/internal/pkg/rbac"
)

// TrialDays is the free trial window every new company starts with.
const TrialDays = 14

type registerRequest struct {
	CompanyName  string `json:"company_name" validate:"required,min=2,max=150"`
	Subdomain    string `json:"subdomain" validate:"required,hostname_rfc1123,min=2,max=63"`
	Name         string `json:"name" validate:"required,min=2,max=150"`
	Email        string `json:"email" validate:"required,email,max=200"`
	Password     string `json:"password" validate:"required,min=8"`
	CaptchaToken string `json:"captcha_token"`
}

// reservedSubdomains can never be claimed by a tenant because they collide
// with platform hosts.
var reservedSubdomains = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true,
	"mail": true, "billing": true, "status": true,
}

func subdomainProblem(c *fiber.Ctx, problem string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation_failed",
		"fields": fiber.Map{"subdomain": problem},
	})
}

// HandleRegister creates a new company with its first admin user. Served on
// the main domain only; the company starts on a trial.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest(c, "invalid request body")
	}
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return errValidation(c, err)
	}
	if reservedSubdomains[req.Subdomain] {
		return subdomainProblem(c, "reserved")
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok {
			log.Warnf("[Onboarding] captcha rejected for %s: %v", req.Subdomain, err)
			return errBadRequest(c, "captcha verification failed")
		}
	}

	repos := repository.GetGlobalFactory().GetGlobalRepositories()

	taken, err := repos.Company.SubdomainExists(req.Subdomain)
	if err != nil {
		return errInternal(c, "registration failed")
	}
	if taken {
		return subdomainProblem(c, "taken")
	}

	exists, err := repos.Account.EmailExists(req.Email)
	if err != nil {
		return errInternal(c, "registration failed")
	}
	if exists {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation_failed",
			"fields": fiber.Map{"email": "taken"},
		})
	}

	trialEnd := time.Now().Add(TrialDays * 24 * time.Hour)
	company := &models.Company{
		Name:        req.CompanyName,
		Subdomain:   req.Subdomain,
		Email:       req.Email,
		TrialEndsAt: &trialEnd,
	}

	user, err := models.CreateUser(0, req.Name, req.Email, req.Password)
	if err != nil {
		return errValidation(c, err)
	}
	if err := user.GenerateActivationToken(); err != nil {
		return errInternal(c, "registration failed")
	}

	// Company, first user, and admin role land together or not at all.
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		user.CompanyID = company.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		role := &models.UserRole{
			UserID:    user.ID,
			CompanyID: company.ID,
			Role:      rbac.RoleAdmin.String(),
		}
		return tx.Create(role).Error
	})
	if err != nil {
		log.Errorf("[Onboarding] registration failed for %s: %v", req.Subdomain, err)
		return errInternal(c, "registration failed")
	}

	log.Infof("[Onboarding] registered company %s (%d) with admin %d",
		company.Subdomain, company.ID, user.ID)

	verifyURL := fmt.Sprintf("https://%s%s/verify/%s",
		company.Subdomain, env.GetEnv("TENANT_DOMAIN_SUFFIX", ".launchcrm.test"), user.ActivationToken)
	body := fmt.Sprintf(
		"<p>Welcome to %s!</p><p><a href=%q>Verify your email address</a></p>",
		company.Name, verifyURL)
	if err := mail.SendMail(user.Email, "Please verify your email address", body); err != nil {
		log.Warnf("[Onboarding] verification mail to %s failed: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"company": fiber.Map{
			"id":            company.ID,
			"name":          company.Name,
			"subdomain":     company.Subdomain,
			"trial_ends_at": company.TrialEndsAt,
		},
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  rbac.RoleAdmin.String(),
		},
	})
}
