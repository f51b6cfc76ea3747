package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/logging"
	"inkworks/redpen/internal/metrics"
	"inkworks/redpen/internal/models/dtos"
	gormModels "inkworks/redpen/internal/models/gorm"

	"github.com/google/uuid"
)

var (
	ErrEmptyRoster          = errors.New("batch needs at least one student")
	ErrNoMatchedStudents    = errors.New("no matched students to polish")
	ErrPolishAlreadyStarted = errors.New("polish already started for this batch")
	ErrNoFailedSentences    = errors.New("no failed sentences to retry")
	ErrNoOCRText            = errors.New("student has no OCR text yet")
)

// OCRClient is the slice of the OCR provider the pipeline needs
type OCRClient interface {
	RecognizeImage(ctx context.Context, imageURL string) (string, error)
}

// PolishModel is the slice of the model provider the pipeline needs
type PolishModel interface {
	ExtractSentences(ctx context.Context, text string) ([]string, int, error)
	ExtractStudentName(ctx context.Context, ocrText string) (string, int, error)
	PolishSentence(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error)
}

// SentenceQueue fans polish work out to the workers
type SentenceQueue interface {
	EnqueueSentenceBatch(ctx context.Context, streamName string, items []*common.PolishQueueItem) error
}

// BatchPolishService drives the assignment polishing pipeline: roster import,
// OCR, sentence extraction, name matching, queued polishing and the point
// accounting around it. All intermediate state lives in Postgres, so a
// reconnecting client or a restarted worker resumes instead of starting over.
type BatchPolishService struct {
	batches *repositories.BatchRepository
	points  PointsLedger
	ocr     OCRClient
	model   PolishModel
	queue   SentenceQueue
	metrics *metrics.MetricsRegistry
}

func NewBatchPolishService(batches *repositories.BatchRepository, points PointsLedger, ocr OCRClient, model PolishModel, queue SentenceQueue, metricsReg *metrics.MetricsRegistry) *BatchPolishService {
	return &BatchPolishService{
		batches: batches,
		points:  points,
		ocr:     ocr,
		model:   model,
		queue:   queue,
		metrics: metricsReg,
	}
}

// polishCharge is the point price for n students: ceil(1.5 * n)
func polishCharge(n int) int64 {
	return int64(math.Ceil(constants.PolishCostFactor * float64(n)))
}

// CreateBatch imports the roster and opens a draft job
func (s *BatchPolishService) CreateBatch(ctx context.Context, ownerID string, req *dtos.CreateBatchReq) (*dtos.BatchJobResponse, error) {
	roster := make([]gormModels.BatchStudent, 0, len(req.Students))
	for _, name := range req.Students {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		roster = append(roster, gormModels.BatchStudent{
			ID:        uuid.NewString(),
			Name:      name,
			OCRStatus: constants.OCRPending,
		})
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	job := &gormModels.BatchJob{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Status:       constants.BatchDraft,
		Requirements: strings.TrimSpace(req.Requirements),
	}

	if err := s.batches.CreateJob(ctx, job, roster); err != nil {
		return nil, err
	}

	return s.GetBatch(ctx, job.ID, ownerID)
}

// GetBatch returns the full job view for its owner
func (s *BatchPolishService) GetBatch(ctx context.Context, jobID, ownerID string) (*dtos.BatchJobResponse, error) {
	job, err := s.batches.GetJobForOwner(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	return buildJobResponse(job), nil
}

// SubmitOCR runs recognition for one student's sheet, with one automatic
// retry before the student is marked failed.
func (s *BatchPolishService) SubmitOCR(ctx context.Context, jobID, ownerID, studentID, imageURL string) (*dtos.BatchStudentView, error) {
	if _, err := s.batches.GetJobForOwner(ctx, jobID, ownerID); err != nil {
		return nil, err
	}
	student, err := s.batches.GetStudent(ctx, jobID, studentID)
	if err != nil {
		return nil, err
	}

	var text string
	var ocrErr error
	for attempt := 0; attempt < 2; attempt++ {
		text, ocrErr = s.ocr.RecognizeImage(ctx, imageURL)
		student.OCRAttempts++
		if ocrErr == nil {
			break
		}
		logging.Warn("OCR attempt failed",
			"job_id", jobID, "student_id", studentID, "attempt", student.OCRAttempts, "error", ocrErr.Error())
	}

	if ocrErr != nil {
		student.OCRStatus = constants.OCRFailed
		if serr := s.batches.SaveStudent(ctx, student); serr != nil {
			return nil, serr
		}
		if s.metrics != nil {
			s.metrics.OCRJobsTotal.WithLabelValues("failed").Inc()
		}
		return nil, fmt.Errorf("%s: %w", constants.MsgOCRFailed, ocrErr)
	}

	student.OCRText = text
	student.OCRStatus = constants.OCRDone

	// Best effort: a missing name just leaves the student for manual matching.
	if name, _, nerr := s.model.ExtractStudentName(ctx, text); nerr == nil {
		student.ExtractedName = strings.TrimSpace(name)
	} else {
		logging.Warn("name extraction failed",
			"job_id", jobID, "student_id", studentID, "error", nerr.Error())
	}

	if err := s.batches.SaveStudent(ctx, student); err != nil {
		return nil, err
	}
	if err := s.batches.UpdateJobStatus(ctx, jobID, constants.BatchOCRPending); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OCRJobsTotal.WithLabelValues("success").Inc()
	}

	view := buildStudentView(student)
	return &view, nil
}

// ConfirmOCR stores the teacher-edited text for a student
func (s *BatchPolishService) ConfirmOCR(ctx context.Context, jobID, ownerID, studentID, text string) error {
	if _, err := s.batches.GetJobForOwner(ctx, jobID, ownerID); err != nil {
		return err
	}
	student, err := s.batches.GetStudent(ctx, jobID, studentID)
	if err != nil {
		return err
	}

	student.OCRText = text
	student.OCRStatus = constants.OCRConfirmed
	return s.batches.SaveStudent(ctx, student)
}

// ExtractSentences splits a student's confirmed text into sentences. When the
// model call fails the deterministic punctuation split takes over, so this
// stage never hard-fails on provider trouble.
func (s *BatchPolishService) ExtractSentences(ctx context.Context, jobID, ownerID, studentID string) ([]dtos.SentenceView, error) {
	if _, err := s.batches.GetJobForOwner(ctx, jobID, ownerID); err != nil {
		return nil, err
	}
	student, err := s.batches.GetStudent(ctx, jobID, studentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(student.OCRText) == "" {
		return nil, ErrNoOCRText
	}

	sentences, _, err := s.model.ExtractSentences(ctx, student.OCRText)
	if err != nil || len(sentences) == 0 {
		if err != nil {
			logging.Warn(constants.MsgExtractFallback,
				"job_id", jobID, "student_id", studentID, "error", err.Error())
		}
		sentences = SplitSentences(student.OCRText)
	}

	rows := make([]gormModels.BatchSentence, 0, len(sentences))
	for _, original := range sentences {
		original = strings.TrimSpace(original)
		if original == "" {
			continue
		}
		rows = append(rows, gormModels.BatchSentence{
			ID:       uuid.NewString(),
			Original: original,
			State:    constants.SentencePending,
		})
	}

	if err := s.batches.ReplaceSentences(ctx, student.ID, rows); err != nil {
		return nil, err
	}

	views := make([]dtos.SentenceView, 0, len(rows))
	for _, row := range rows {
		views = append(views, buildSentenceView(&row))
	}
	return views, nil
}

// MatchNames scores every extracted name against the roster. Scores above the
// confirm threshold bind automatically, scores above the suggest threshold are
// surfaced for manual confirmation, the rest stay unmatched.
func (s *BatchPolishService) MatchNames(ctx context.Context, jobID, ownerID string) (*dtos.MatchResultResponse, error) {
	job, err := s.batches.GetJobForOwner(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}

	roster := make([]string, 0, len(job.Students))
	for _, st := range job.Students {
		roster = append(roster, st.Name)
	}

	result := &dtos.MatchResultResponse{JobID: job.ID}
	for i := range job.Students {
		student := &job.Students[i]
		if student.ExtractedName == "" {
			result.Unmatched = append(result.Unmatched, student.Name)
			continue
		}

		bestName, score := BestRosterMatch(roster, student.ExtractedName)
		student.MatchScore = score
		student.Matched = score > constants.MatchConfirmThreshold
		if student.Matched {
			student.Name = bestName
		}

		if err := s.batches.SaveStudent(ctx, student); err != nil {
			return nil, err
		}

		if score > constants.MatchSuggestThreshold {
			result.Suggestions = append(result.Suggestions, dtos.MatchSuggestion{
				StudentID:     student.ID,
				ExtractedName: student.ExtractedName,
				RosterName:    bestName,
				Score:         score,
				AutoConfirmed: student.Matched,
			})
		} else {
			result.Unmatched = append(result.Unmatched, student.Name)
		}
	}

	if err := s.batches.UpdateJobStatus(ctx, jobID, constants.BatchMatching); err != nil {
		return nil, err
	}
	return result, nil
}

// OverrideMatch lets the teacher bind a student manually
func (s *BatchPolishService) OverrideMatch(ctx context.Context, jobID, ownerID, studentID, name string) error {
	if _, err := s.batches.GetJobForOwner(ctx, jobID, ownerID); err != nil {
		return err
	}
	student, err := s.batches.GetStudent(ctx, jobID, studentID)
	if err != nil {
		return err
	}

	if name = strings.TrimSpace(name); name != "" {
		student.Name = name
	}
	student.Matched = true
	student.MatchScore = 1.0
	return s.batches.SaveStudent(ctx, student)
}

// StartPolish charges for the matched students up front and fans their
// pending sentences out to the workers. An enqueue failure refunds the full
// charge and fails the job.
func (s *BatchPolishService) StartPolish(ctx context.Context, jobID, ownerID string) (*dtos.BatchJobResponse, error) {
	job, err := s.batches.GetJobForOwner(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}

	var items []*common.PolishQueueItem
	matched := 0
	for _, student := range job.Students {
		if !student.Matched {
			continue
		}
		matched++
		for _, sentence := range student.Sentences {
			if sentence.State != constants.SentencePending {
				continue
			}
			items = append(items, &common.PolishQueueItem{
				JobID:        job.ID,
				StudentID:    student.ID,
				SentenceID:   sentence.ID,
				Original:     sentence.Original,
				Requirements: job.Requirements,
			})
		}
	}

	if matched == 0 {
		return nil, ErrNoMatchedStudents
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("matched students have no pending sentences")
	}

	// Claim the job before charging so a second concurrent (or repeated)
	// polish request cannot spend again while this run is in flight.
	startable := []constants.BatchStatus{
		constants.BatchDraft, constants.BatchOCRPending,
		constants.BatchMatching, constants.BatchFailed,
	}
	moved, err := s.batches.TransitionJobStatus(ctx, job.ID, startable, constants.BatchPolishing)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrPolishAlreadyStarted
	}

	cost := polishCharge(matched)
	if _, err := s.points.Spend(ctx, job.OwnerID, cost, constants.TxGenerate, "Batch polish", &job.ID, nil); err != nil {
		if _, terr := s.batches.TransitionJobStatus(ctx, job.ID,
			[]constants.BatchStatus{constants.BatchPolishing}, constants.BatchMatching); terr != nil {
			logging.Error("failed to release job after charge failure",
				"job_id", job.ID, "error", terr.Error())
		}
		return nil, err
	}
	if err := s.batches.SetJobAccounting(ctx, job.ID, cost, 0); err != nil {
		return nil, err
	}

	if err := s.queue.EnqueueSentenceBatch(ctx, constants.PolishStreamName, items); err != nil {
		// Whole-pipeline failure before any work happened: full refund.
		if _, rerr := s.points.Grant(ctx, job.OwnerID, cost, constants.TxRefund, "Refund: batch polish failed to start", &job.ID, nil); rerr != nil {
			logging.Error("full refund after enqueue failure failed",
				"job_id", job.ID, "error", rerr.Error())
		}
		if aerr := s.batches.SetJobAccounting(ctx, job.ID, cost, cost); aerr != nil {
			logging.Error("failed to record refund", "job_id", job.ID, "error", aerr.Error())
		}
		if serr := s.batches.UpdateJobStatus(ctx, job.ID, constants.BatchFailed); serr != nil {
			logging.Error("failed to fail job", "job_id", job.ID, "error", serr.Error())
		}
		if s.metrics != nil {
			s.metrics.BatchJobsTotal.WithLabelValues(string(constants.BatchFailed)).Inc()
		}
		return nil, fmt.Errorf("failed to enqueue polish work: %w", err)
	}

	return s.GetBatch(ctx, jobID, ownerID)
}

// ProcessSentence polishes one queued sentence. A provider failure keeps the
// original text as the output at confidence zero so the student still gets a
// complete sheet back.
func (s *BatchPolishService) ProcessSentence(ctx context.Context, item *common.PolishQueueItem) error {
	sentence, err := s.batches.GetSentence(ctx, item.SentenceID)
	if err != nil {
		return err
	}
	if sentence.State == constants.SentencePolished {
		// Redelivered message; nothing to do.
		return nil
	}

	result, _, perr := s.model.PolishSentence(ctx, sentence.Original, item.Requirements)
	if perr != nil {
		sentence.Polished = sentence.Original
		sentence.Confidence = 0
		sentence.State = constants.SentenceFailed
		if s.metrics != nil {
			s.metrics.SentencesPolishedTotal.WithLabelValues("failed").Inc()
		}
		logging.Warn("sentence polish failed",
			"job_id", item.JobID, "sentence_id", item.SentenceID, "error", perr.Error())
	} else {
		sentence.Polished = result.Polished
		sentence.Confidence = result.Confidence
		sentence.State = constants.SentencePolished
		if s.metrics != nil {
			s.metrics.SentencesPolishedTotal.WithLabelValues("success").Inc()
		}
	}

	return s.batches.SaveSentence(ctx, sentence)
}

// FinalizeIfDone settles the job once no pending sentences remain: students
// whose every sentence failed are refunded at the same per-student rate. The
// refund only ever grows across retry rounds, so a retry that succeeds never
// claws points back.
func (s *BatchPolishService) FinalizeIfDone(ctx context.Context, jobID string) (bool, error) {
	pending, err := s.batches.SentencesInState(ctx, jobID, constants.SentencePending)
	if err != nil {
		return false, err
	}
	if len(pending) > 0 {
		return false, nil
	}

	job, err := s.batches.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Status != constants.BatchPolishing {
		return false, nil
	}

	// Two workers can finish the last two sentences at the same time; the
	// guarded update picks the one that settles and grants the refund.
	moved, err := s.batches.TransitionJobStatus(ctx, job.ID,
		[]constants.BatchStatus{constants.BatchPolishing}, constants.BatchCompleted)
	if err != nil {
		return false, err
	}
	if !moved {
		return false, nil
	}

	fullyFailed := 0
	for _, student := range job.Students {
		if !student.Matched || len(student.Sentences) == 0 {
			continue
		}
		failed := true
		for _, sentence := range student.Sentences {
			if sentence.State != constants.SentenceFailed {
				failed = false
				break
			}
		}
		if failed {
			fullyFailed++
		}
	}

	refund := polishCharge(fullyFailed)
	if refund > job.PointsCost {
		refund = job.PointsCost
	}
	if delta := refund - job.PointsRefund; delta > 0 {
		desc := fmt.Sprintf("Refund: %d student(s) failed polishing", fullyFailed)
		if _, err := s.points.Grant(ctx, job.OwnerID, delta, constants.TxRefund, desc, &job.ID, nil); err != nil {
			return false, fmt.Errorf("failed to refund job %s: %w", job.ID, err)
		}
	}
	if refund < job.PointsRefund {
		refund = job.PointsRefund
	}

	if err := s.batches.SetJobAccounting(ctx, job.ID, job.PointsCost, refund); err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.BatchJobsTotal.WithLabelValues(string(constants.BatchCompleted)).Inc()
	}

	logging.Info("batch polish settled",
		"job_id", job.ID, "cost", job.PointsCost, "refund", refund, "fully_failed", fullyFailed)
	return true, nil
}

// RetryFailed re-queues only the failed sentences at no extra charge
func (s *BatchPolishService) RetryFailed(ctx context.Context, jobID, ownerID string) error {
	job, err := s.batches.GetJobForOwner(ctx, jobID, ownerID)
	if err != nil {
		return err
	}

	failed, err := s.batches.SentencesInState(ctx, jobID, constants.SentenceFailed)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return ErrNoFailedSentences
	}

	items := make([]*common.PolishQueueItem, 0, len(failed))
	for i := range failed {
		sentence := &failed[i]
		sentence.State = constants.SentencePending
		sentence.Polished = ""
		sentence.Confidence = 0
		if err := s.batches.SaveSentence(ctx, sentence); err != nil {
			return err
		}
		items = append(items, &common.PolishQueueItem{
			JobID:        job.ID,
			StudentID:    sentence.StudentID,
			SentenceID:   sentence.ID,
			Original:     sentence.Original,
			Requirements: job.Requirements,
			Attempt:      1,
		})
	}

	if err := s.queue.EnqueueSentenceBatch(ctx, constants.PolishStreamName, items); err != nil {
		return fmt.Errorf("failed to enqueue retry work: %w", err)
	}
	return s.batches.UpdateJobStatus(ctx, jobID, constants.BatchPolishing)
}

// Results aggregates the per-student outcome of a job
func (s *BatchPolishService) Results(ctx context.Context, jobID, ownerID string) (*dtos.PolishSummary, error) {
	job, err := s.batches.GetJobForOwner(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}

	summary := &dtos.PolishSummary{
		JobID:          job.ID,
		TotalStudents:  len(job.Students),
		PointsCost:     job.PointsCost,
		PointsRefunded: job.PointsRefund,
	}

	for _, student := range job.Students {
		if !student.Matched {
			continue
		}
		summary.MatchedStudents++

		allFailed := len(student.Sentences) > 0
		for _, sentence := range student.Sentences {
			summary.TotalSentences++
			switch sentence.State {
			case constants.SentencePolished:
				summary.PolishedCount++
				allFailed = false
			case constants.SentenceFailed:
				summary.FailedCount++
			default:
				allFailed = false
			}
		}
		if allFailed {
			summary.FullyFailed++
		}
	}

	return summary, nil
}

func buildSentenceView(s *gormModels.BatchSentence) dtos.SentenceView {
	return dtos.SentenceView{
		Position:   s.Position,
		Original:   s.Original,
		Polished:   s.Polished,
		Confidence: s.Confidence,
		State:      string(s.State),
	}
}

func buildStudentView(s *gormModels.BatchStudent) dtos.BatchStudentView {
	view := dtos.BatchStudentView{
		ID:            s.ID,
		Name:          s.Name,
		OCRStatus:     string(s.OCRStatus),
		OCRText:       s.OCRText,
		ExtractedName: s.ExtractedName,
		MatchScore:    s.MatchScore,
		Matched:       s.Matched,
	}
	for i := range s.Sentences {
		view.Sentences = append(view.Sentences, buildSentenceView(&s.Sentences[i]))
	}
	return view
}

func buildJobResponse(job *gormModels.BatchJob) *dtos.BatchJobResponse {
	resp := &dtos.BatchJobResponse{
		ID:           job.ID,
		Status:       string(job.Status),
		Requirements: job.Requirements,
		PointsCost:   job.PointsCost,
		PointsRefund: job.PointsRefund,
		CreatedAt:    job.CreatedAt,
	}
	for i := range job.Students {
		resp.Students = append(resp.Students, buildStudentView(&job.Students[i]))
	}
	return resp
}
