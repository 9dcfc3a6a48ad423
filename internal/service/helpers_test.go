package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"helpdetective/internal/catalog"
	"helpdetective/internal/database"
	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/repository"
)

const testCards = `[
  {"id": 1, "title": "Recreio"},
  {"id": 2, "nome": "Parque"},
  {"id": 3, "title": "Sala de aula"},
  {"id": 7, "title": "Aniversário"},
  {"id": 8, "title": "Ônibus"}
]`

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(path, []byte(testCards), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.New(path, nil)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return cat
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "clinic.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// fakePatients is an in-memory PatientStore
type fakePatients struct {
	patients map[int64]models.Patient
	nextID   int64
	err      error
}

func newFakePatients(ids ...int64) *fakePatients {
	f := &fakePatients{patients: make(map[int64]models.Patient), nextID: 1}
	for _, id := range ids {
		f.patients[id] = models.Patient{ID: id, Nickname: "P", AgeGroup: models.AgeGroupAdult}
		if id >= f.nextID {
			f.nextID = id + 1
		}
	}
	return f
}

func (f *fakePatients) CreatePatient(nickname string, ageGroup models.AgeGroup, notes string) (*models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := models.Patient{ID: f.nextID, Nickname: nickname, AgeGroup: ageGroup, Notes: notes}
	f.patients[p.ID] = p
	f.nextID++
	return &p, nil
}

func (f *fakePatients) GetPatientByID(id int64) (*models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakePatients) ListPatients() ([]models.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Patient{}
	for id := f.nextID - 1; id > 0; id-- {
		if p, ok := f.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeSessions records commits and can be told to fail
type fakeSessions struct {
	commits [][]models.Attempt
	err     error
}

func (f *fakeSessions) CommitSession(patientID int64, mode models.SessionMode, notes string, attempts []models.Attempt) (*models.SessionWithAttempts, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.commits = append(f.commits, attempts)
	id := int64(len(f.commits))
	committed := &models.SessionWithAttempts{
		Session:  models.Session{ID: id, PatientID: patientID, Mode: mode, Notes: notes},
		Attempts: make([]models.Attempt, len(attempts)),
	}
	for i, a := range attempts {
		a.SessionID = id
		a.ID = int64(i + 1)
		committed.Attempts[i] = a
	}
	return committed, nil
}

var errDiskFull = errors.New("disk I/O error")

// newFakeWorkflow returns a workflow over in-memory stores with patient 1 selected
func newFakeWorkflow(t *testing.T) (*SessionWorkflow, *fakePatients, *fakeSessions) {
	t.Helper()
	patients := newFakePatients(1, 2)
	sessions := &fakeSessions{}
	w := NewSessionWorkflow(patients, sessions, newTestCatalog(t), logger.Nop())
	if err := w.SelectPatient(1); err != nil {
		t.Fatalf("SelectPatient() error = %v", err)
	}
	return w, patients, sessions
}

func scores(d, c, ce, a, comm, s int) models.Scores {
	return models.Scores{Detection: d, Clues: c, CogEmpathy: ce, Action: a, Communication: comm, Safety: s}
}
