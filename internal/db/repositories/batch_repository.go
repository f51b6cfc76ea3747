package repositories

import (
	"context"
	"errors"
	"fmt"

	"inkworks/redpen/internal/constants"
	gormModels "inkworks/redpen/internal/models/gorm"

	"gorm.io/gorm"
)

var ErrBatchNotFound = errors.New("batch job not found")

type BatchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new GORM-based batch job repository
func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateJob stores a job together with its roster in one transaction.
func (r *BatchRepository) CreateJob(ctx context.Context, job *gormModels.BatchJob, students []gormModels.BatchStudent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("failed to create batch job: %w", err)
		}
		for i := range students {
			students[i].JobID = job.ID
		}
		if len(students) > 0 {
			if err := tx.Create(&students).Error; err != nil {
				return fmt.Errorf("failed to create batch students: %w", err)
			}
		}
		return nil
	})
}

// GetJob loads a job with students and sentences preloaded.
func (r *BatchRepository) GetJob(ctx context.Context, jobID string) (*gormModels.BatchJob, error) {
	var job gormModels.BatchJob
	err := r.db.WithContext(ctx).
		Preload("Students.Sentences", func(db *gorm.DB) *gorm.DB {
			return db.Order("batch_sentences.position")
		}).
		Preload("Students").
		Where("id = ?", jobID).
		First(&job).Error

	if err == gorm.ErrRecordNotFound {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch job: %w", err)
	}
	return &job, nil
}

// GetJobForOwner loads a job only when it belongs to the given owner.
func (r *BatchRepository) GetJobForOwner(ctx context.Context, jobID, ownerID string) (*gormModels.BatchJob, error) {
	job, err := r.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, ErrBatchNotFound
	}
	return job, nil
}

func (r *BatchRepository) UpdateJobStatus(ctx context.Context, jobID string, status constants.BatchStatus) error {
	res := r.db.WithContext(ctx).
		Model(&gormModels.BatchJob{}).
		Where("id = ?", jobID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update job status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// TransitionJobStatus moves a job to a new status only while it is still in
// one of the expected ones. A false return reports a lost race: another
// caller moved the job first.
func (r *BatchRepository) TransitionJobStatus(ctx context.Context, jobID string, from []constants.BatchStatus, to constants.BatchStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.BatchJob{}).
		Where("id = ? AND status IN ?", jobID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition job status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetJobAccounting records what a polish run charged and refunded.
func (r *BatchRepository) SetJobAccounting(ctx context.Context, jobID string, cost, refund int64) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.BatchJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{"points_cost": cost, "points_refund": refund}).Error
	if err != nil {
		return fmt.Errorf("failed to update job accounting: %w", err)
	}
	return nil
}

func (r *BatchRepository) GetStudent(ctx context.Context, jobID, studentID string) (*gormModels.BatchStudent, error) {
	var s gormModels.BatchStudent
	err := r.db.WithContext(ctx).
		Where("id = ? AND job_id = ?", studentID, jobID).
		First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch student: %w", err)
	}
	return &s, nil
}

func (r *BatchRepository) SaveStudent(ctx context.Context, s *gormModels.BatchStudent) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("failed to save batch student: %w", err)
	}
	return nil
}

// ReplaceSentences swaps a student's sentence set, used after extraction.
func (r *BatchRepository) ReplaceSentences(ctx context.Context, studentID string, sentences []gormModels.BatchSentence) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&gormModels.BatchSentence{}).Error; err != nil {
			return fmt.Errorf("failed to clear sentences: %w", err)
		}
		for i := range sentences {
			sentences[i].StudentID = studentID
			sentences[i].Position = i
		}
		if len(sentences) > 0 {
			if err := tx.Create(&sentences).Error; err != nil {
				return fmt.Errorf("failed to insert sentences: %w", err)
			}
		}
		return nil
	})
}

func (r *BatchRepository) GetSentence(ctx context.Context, sentenceID string) (*gormModels.BatchSentence, error) {
	var s gormModels.BatchSentence
	err := r.db.WithContext(ctx).Where("id = ?", sentenceID).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sentence: %w", err)
	}
	return &s, nil
}

func (r *BatchRepository) SaveSentence(ctx context.Context, s *gormModels.BatchSentence) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("failed to save sentence: %w", err)
	}
	return nil
}

// SentencesInState lists a job's sentences in the given state, joined through
// matched students only.
func (r *BatchRepository) SentencesInState(ctx context.Context, jobID string, state constants.SentenceState) ([]gormModels.BatchSentence, error) {
	var sentences []gormModels.BatchSentence
	err := r.db.WithContext(ctx).
		Joins("JOIN batch_students ON batch_students.id = batch_sentences.student_id").
		Where("batch_students.job_id = ? AND batch_students.matched = ? AND batch_sentences.state = ?", jobID, true, state).
		Find(&sentences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sentences: %w", err)
	}
	return sentences, nil
}
