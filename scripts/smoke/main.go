// Runs the scoring and classification engines against sample inputs
// using the configured presets, rules file and history backend.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"scoring-engine/internal/bootstrap"
	"scoring-engine/internal/config"
	"scoring-engine/internal/models"
	"scoring-engine/internal/utils"
)

func main() {
	fmt.Println("=== Scoring Engine - Local Test ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	_ = utils.InitLogger("warn")
	defer utils.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()
	fmt.Printf("✅ Started with %s history\n", cfg.HistoryBackend)

	applicants := map[string]models.LoanApplication{
		"strong": {
			Age: 30, AnnualIncome: 80000, CreditScore: 760, LoanAmount: 150000, LoanTermMonths: 120,
			Education: models.EducationGraduate, Employment: models.EmploymentSalaried,
			MaritalStatus: models.MaritalMarried, PropertyArea: models.PropertyUrban, Dependents: models.Dependents0,
		},
		"weak": {
			Age: 22, AnnualIncome: 20000, CreditScore: 550, LoanAmount: 100000, LoanTermMonths: 360,
			Education: models.EducationNotGraduate, Employment: models.EmploymentSelfEmployed,
			PropertyArea: models.PropertyRural, Dependents: models.Dependents3OrMore,
		},
	}

	fmt.Println()
	fmt.Println("🎯 Scoring sample applicants...")
	for _, preset := range app.Service.Presets() {
		for _, name := range []string{"strong", "weak"} {
			rec, err := app.Service.ScoreLoan(ctx, applicants[name], preset.Name)
			if err != nil {
				fmt.Printf("   ❌ %s/%s: %v\n", preset.Name, name, err)
				continue
			}
			d := rec.Decision
			fmt.Printf("   %-10s %-7s approved=%-5t total=%4d confidence=%3d%% risk=%3d\n",
				preset.Name, name, d.Approved, d.TotalScore, d.ConfidencePercent, d.RiskScore)
		}
	}

	fmt.Println()
	fmt.Println("📧 Classifying sample e-mails...")
	emails := []models.EmailInput{
		{Subject: "URGENT: You are a LOTTERY WINNER!!!", Sender: "user@tempmail.com", Content: "claim your prize now, click here"},
		{Subject: "Quarterly report", Sender: "cfo@company.com", Content: "Please review the attached invoice before the meeting."},
	}
	for _, in := range emails {
		rec, err := app.Service.ClassifyEmail(ctx, in)
		if err != nil {
			fmt.Printf("   ❌ %q: %v\n", in.Subject, err)
			continue
		}
		c := rec.Classification
		fmt.Printf("   spam=%-5t raw=%3d confidence=%3d%% %q\n", c.IsSpam, c.RawScore, c.ConfidencePercent, in.Subject)
	}

	stats, err := app.Service.LoanStats(ctx)
	if err == nil {
		fmt.Println()
		fmt.Printf("📊 Loan history: %d records, approval rate %.1f%%\n", stats.Total, stats.ApprovalRate)
	}

	fmt.Println()
	fmt.Println("🎉 Local test completed!")
}
