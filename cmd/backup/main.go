package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"helpdetective/internal/config"
	"helpdetective/internal/database"
	"helpdetective/internal/logger"
	"helpdetective/internal/repository"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")

	// Report flags
	reportPatient := reportCmd.Int64("patient", 0, "Patient id (required)")
	reportOutput := reportCmd.String("output", "", "Output file path (default: stdout)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if os.Args[1] == "hash-password" {
		handleHashPassword(os.Stdin, log)
		return
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if _, err := db.RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	backupService := service.NewBackupService(repository.NewBackupRepository(db), log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(backupService, *exportOutput, log)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(backupService, *importInput, log)

	case "report":
		reportCmd.Parse(os.Args[2:])
		if *reportPatient <= 0 {
			fmt.Println("Error: -patient flag is required")
			reportCmd.PrintDefaults()
			os.Exit(1)
		}
		patientRepo := repository.NewPatientRepository(db)
		reportService := service.NewReportService(patientRepo, repository.NewReportRepository(db))
		handleReport(reportService, *reportPatient, *reportOutput, log)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(backupService *service.BackupService, outputPath string, log *logger.Logger) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory", "error", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatal("Failed to create output file", "path", outputPath, "error", err)
	}
	defer file.Close()

	log.Info("Exporting database", "path", outputPath)
	if err := backupService.ExportToWriter(file); err != nil {
		log.Fatal("Export failed", "error", err)
	}

	if info, err := file.Stat(); err == nil {
		log.Info("Export complete", "size_kb", float64(info.Size())/1024)
	}
}

func handleImport(backupService *service.BackupService, inputPath string, log *logger.Logger) {
	file, err := os.Open(inputPath)
	if err != nil {
		log.Fatal("Failed to open input file", "path", inputPath, "error", err)
	}
	defer file.Close()

	log.Info("Importing database", "path", inputPath)
	if err := backupService.ImportFromReader(file); err != nil {
		log.Fatal("Import failed", "error", err)
	}

	log.Info("Import complete")
}

func handleReport(reportService *service.ReportService, patientID int64, outputPath string, log *logger.Logger) {
	data, err := reportService.ExportCSV(patientID)
	if err != nil {
		log.Fatal("Report failed", "patient_id", patientID, "error", err)
	}

	if outputPath == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		log.Fatal("Failed to write report", "path", outputPath, "error", err)
	}
	log.Info("Report written", "patient_id", patientID, "path", outputPath)
}

// handleHashPassword reads the clinic password from stdin and prints the
// bcrypt hash for CLINIC_PASSWORD_HASH
func handleHashPassword(in io.Reader, log *logger.Logger) {
	fmt.Fprint(os.Stderr, "Clinic password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		log.Fatal("Failed to read password", "error", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		log.Fatal("Password must not be empty")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash password", "error", err)
	}
	fmt.Println(hash)
}

func printUsage() {
	fmt.Println("Detetive da Ajuda Database Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export patients, sessions and attempts to JSON")
	fmt.Println("  backup import [options]    Restore a JSON backup into an empty database")
	fmt.Println("  backup report [options]    Write a patient's attempts as CSV")
	fmt.Println("  backup hash-password       Read a password on stdin and print its bcrypt hash")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println()
	fmt.Println("Report Options:")
	fmt.Println("  -patient <id>     Patient id (required)")
	fmt.Println("  -output <file>    Output file path (default: stdout)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output backups/clinic.json")
	fmt.Println("  backup import -input backups/clinic.json")
	fmt.Println("  backup report -patient 3 -output relatorio_tentativas_3.csv")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, pgx or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./db/clinic.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
