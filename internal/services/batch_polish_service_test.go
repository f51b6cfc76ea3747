package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkworks/redpen/internal/common"
	"inkworks/redpen/internal/constants"
	"inkworks/redpen/internal/db/repositories"
	"inkworks/redpen/internal/models/dtos"

	"gorm.io/gorm"
)

func newBatchFixture(t *testing.T, ocr OCRClient, model PolishModel) (*BatchPolishService, *fakeLedger, *mockQueue, *gorm.DB) {
	db := setupTestDB(t)
	ledger := newFakeLedger()
	queue := &mockQueue{}
	svc := NewBatchPolishService(repositories.NewBatchRepository(db), ledger, ocr, model, queue, nil)
	return svc, ledger, queue, db
}

func TestPolishCharge(t *testing.T) {
	cases := []struct {
		students int
		want     int64
	}{
		{0, 0},
		{1, 2}, // ceil(1.5)
		{2, 3}, // ceil(3.0)
		{3, 5}, // ceil(4.5)
		{4, 6},
	}
	for _, c := range cases {
		if got := polishCharge(c.students); got != c.want {
			t.Errorf("polishCharge(%d): expected %d, got %d", c.students, c.want, got)
		}
	}
}

func TestBatchPolishService_CreateBatch(t *testing.T) {
	svc, _, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{})

	resp, err := svc.CreateBatch(context.Background(), "teacher-1", &dtos.CreateBatchReq{
		Students:     []string{"张三", " 李四 ", ""},
		Requirements: "use past tense",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.Status != string(constants.BatchDraft) {
		t.Errorf("Expected draft status, got %s", resp.Status)
	}
	if len(resp.Students) != 2 {
		t.Fatalf("Expected 2 students after trimming, got %d", len(resp.Students))
	}
	if resp.Students[1].Name != "李四" {
		t.Errorf("Expected trimmed name 李四, got %q", resp.Students[1].Name)
	}
}

func TestBatchPolishService_CreateBatch_EmptyRoster(t *testing.T) {
	svc, _, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{})

	_, err := svc.CreateBatch(context.Background(), "teacher-1", &dtos.CreateBatchReq{Students: []string{"  "}})
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("Expected ErrEmptyRoster, got %v", err)
	}
}

func TestBatchPolishService_GetBatch_WrongOwner(t *testing.T) {
	svc, _, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{})
	ctx := context.Background()

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{Students: []string{"张三"}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	_, err = svc.GetBatch(ctx, job.ID, "teacher-2")
	if !errors.Is(err, repositories.ErrBatchNotFound) {
		t.Fatalf("Expected ErrBatchNotFound for wrong owner, got %v", err)
	}
}

func TestBatchPolishService_SubmitOCR_RetryThenFail(t *testing.T) {
	attempts := 0
	ocr := &mockOCR{
		recognizeFunc: func(ctx context.Context, imageURL string) (string, error) {
			attempts++
			return "", errors.New("blurry image")
		},
	}
	svc, _, _, _ := newBatchFixture(t, ocr, &mockModel{})
	ctx := context.Background()

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{Students: []string{"张三"}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	_, err = svc.SubmitOCR(ctx, job.ID, "teacher-1", job.Students[0].ID, "https://img/1.jpg")
	if err == nil {
		t.Fatal("Expected error after exhausted retry")
	}
	if attempts != 2 {
		t.Errorf("Expected exactly one automatic retry (2 attempts), got %d", attempts)
	}

	view, err := svc.GetBatch(ctx, job.ID, "teacher-1")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if view.Students[0].OCRStatus != string(constants.OCRFailed) {
		t.Errorf("Expected OCR status failed, got %s", view.Students[0].OCRStatus)
	}
}

func TestBatchPolishService_ExtractSentences_Fallback(t *testing.T) {
	model := &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return nil, 500, errors.New("model unavailable")
		},
	}
	svc, _, _, _ := newBatchFixture(t, &mockOCR{}, model)
	ctx := context.Background()

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{Students: []string{"张三"}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	studentID := job.Students[0].ID

	if err := svc.ConfirmOCR(ctx, job.ID, "teacher-1", studentID, "I like apples. Do you?"); err != nil {
		t.Fatalf("ConfirmOCR failed: %v", err)
	}

	sentences, err := svc.ExtractSentences(ctx, job.ID, "teacher-1", studentID)
	if err != nil {
		t.Fatalf("Expected fallback split, got error %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences from punctuation split, got %d", len(sentences))
	}
	if sentences[0].Original != "I like apples." {
		t.Errorf("Unexpected first sentence %q", sentences[0].Original)
	}
}

func TestBatchPolishService_StartPolish_InsufficientPoints(t *testing.T) {
	svc, ledger, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return []string{"One sentence."}, 200, nil
		},
	})
	ctx := context.Background()
	ledger.balances["teacher-1"] = 1

	job := setupMatchedJob(t, svc, ctx, []string{"张三"})

	_, err := svc.StartPolish(ctx, job.ID, "teacher-1")
	if !errors.Is(err, repositories.ErrInsufficientPoints) {
		t.Fatalf("Expected ErrInsufficientPoints, got %v", err)
	}

	// The failed charge releases the job so a later attempt can start.
	ledger.balances["teacher-1"] = 10
	if _, err := svc.StartPolish(ctx, job.ID, "teacher-1"); err != nil {
		t.Fatalf("StartPolish after topping up failed: %v", err)
	}
}

func TestBatchPolishService_StartPolish_SecondCallRejected(t *testing.T) {
	svc, ledger, queue, _ := newBatchFixture(t, &mockOCR{}, &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return []string{"One sentence."}, 200, nil
		},
	})
	ctx := context.Background()
	ledger.balances["teacher-1"] = 100

	job := setupMatchedJob(t, svc, ctx, []string{"张三"})

	if _, err := svc.StartPolish(ctx, job.ID, "teacher-1"); err != nil {
		t.Fatalf("StartPolish failed: %v", err)
	}
	queued := len(queue.items)

	_, err := svc.StartPolish(ctx, job.ID, "teacher-1")
	if !errors.Is(err, ErrPolishAlreadyStarted) {
		t.Fatalf("Expected ErrPolishAlreadyStarted, got %v", err)
	}

	if len(ledger.spends) != 1 {
		t.Errorf("Expected a single charge, got %d spends", len(ledger.spends))
	}
	if balance, _ := ledger.Balance(ctx, "teacher-1"); balance != 98 {
		t.Errorf("Expected balance 98 after one charge, got %d", balance)
	}
	if len(queue.items) != queued {
		t.Errorf("Expected no re-enqueued sentences, got %d extra", len(queue.items)-queued)
	}
}

func TestBatchPolishService_StartPolish_EnqueueFailureFullRefund(t *testing.T) {
	svc, ledger, queue, _ := newBatchFixture(t, &mockOCR{}, &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return []string{"One sentence."}, 200, nil
		},
	})
	ctx := context.Background()
	ledger.balances["teacher-1"] = 100
	queue.fail = errors.New("redis down")

	job := setupMatchedJob(t, svc, ctx, []string{"张三"})

	_, err := svc.StartPolish(ctx, job.ID, "teacher-1")
	if err == nil {
		t.Fatal("Expected error when enqueue fails")
	}

	if balance, _ := ledger.Balance(ctx, "teacher-1"); balance != 100 {
		t.Errorf("Expected full refund back to 100, got %d", balance)
	}

	view, err := svc.GetBatch(ctx, job.ID, "teacher-1")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if view.Status != string(constants.BatchFailed) {
		t.Errorf("Expected failed status, got %s", view.Status)
	}
	if view.PointsRefund != view.PointsCost {
		t.Errorf("Expected refund %d to equal cost, got %d", view.PointsCost, view.PointsRefund)
	}
}

// A model failure is recorded as a failed sentence and reports success, but
// a sentence the database cannot produce must surface as an error so the
// queue message stays pending and gets redelivered.
func TestBatchPolishService_ProcessSentence_PersistenceErrorPropagates(t *testing.T) {
	svc, _, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{})
	ctx := context.Background()

	err := svc.ProcessSentence(ctx, &common.PolishQueueItem{
		JobID:      "job-x",
		SentenceID: "no-such-sentence",
		Original:   "He go home.",
	})
	if err == nil {
		t.Fatal("Expected an error for a sentence the database does not have")
	}
}

func TestBatchPolishService_FinalizeIfDone_SettlesOnce(t *testing.T) {
	svc, ledger, queue, _ := newBatchFixture(t, &mockOCR{}, &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return []string{"One sentence."}, 200, nil
		},
		polishSentenceFunc: func(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error) {
			return nil, 500, errors.New("provider error")
		},
	})
	ctx := context.Background()
	ledger.balances["teacher-1"] = 100

	job := setupMatchedJob(t, svc, ctx, []string{"张三"})
	if _, err := svc.StartPolish(ctx, job.ID, "teacher-1"); err != nil {
		t.Fatalf("StartPolish failed: %v", err)
	}
	for _, item := range queue.items {
		if err := svc.ProcessSentence(ctx, item); err != nil {
			t.Fatalf("ProcessSentence failed: %v", err)
		}
	}

	done, err := svc.FinalizeIfDone(ctx, job.ID)
	if err != nil || !done {
		t.Fatalf("Expected first finalize to settle, got done=%v err=%v", done, err)
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("Expected one refund grant, got %d", len(ledger.grants))
	}

	done, err = svc.FinalizeIfDone(ctx, job.ID)
	if err != nil || done {
		t.Fatalf("Expected second finalize to be a no-op, got done=%v err=%v", done, err)
	}
	if len(ledger.grants) != 1 {
		t.Errorf("Expected no further refunds, got %d grants", len(ledger.grants))
	}
	if balance, _ := ledger.Balance(ctx, "teacher-1"); balance != 100 {
		t.Errorf("Expected balance back at 100 after a single refund, got %d", balance)
	}
}

func TestBatchRepository_TransitionJobStatus_SingleWinner(t *testing.T) {
	svc, _, _, db := newBatchFixture(t, &mockOCR{}, &mockModel{})
	ctx := context.Background()

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{Students: []string{"张三"}})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	repo := repositories.NewBatchRepository(db)
	from := []constants.BatchStatus{constants.BatchDraft}

	moved, err := repo.TransitionJobStatus(ctx, job.ID, from, constants.BatchPolishing)
	if err != nil || !moved {
		t.Fatalf("Expected first transition to win, got moved=%v err=%v", moved, err)
	}
	moved, err = repo.TransitionJobStatus(ctx, job.ID, from, constants.BatchPolishing)
	if err != nil {
		t.Fatalf("Second transition errored: %v", err)
	}
	if moved {
		t.Error("Expected second transition to lose: job already left draft")
	}
}

// setupMatchedJob builds a job whose students have confirmed OCR text, one
// extracted sentence each, and are manually matched.
func setupMatchedJob(t *testing.T, svc *BatchPolishService, ctx context.Context, names []string) *dtos.BatchJobResponse {
	t.Helper()

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{Students: names, Requirements: "past tense"})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	for _, student := range job.Students {
		if err := svc.ConfirmOCR(ctx, job.ID, "teacher-1", student.ID, student.Name+" wrote this sentence."); err != nil {
			t.Fatalf("ConfirmOCR failed: %v", err)
		}
		if _, err := svc.ExtractSentences(ctx, job.ID, "teacher-1", student.ID); err != nil {
			t.Fatalf("ExtractSentences failed: %v", err)
		}
		if err := svc.OverrideMatch(ctx, job.ID, "teacher-1", student.ID, ""); err != nil {
			t.Fatalf("OverrideMatch failed: %v", err)
		}
	}

	job, err = svc.GetBatch(ctx, job.ID, "teacher-1")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	return job
}

// End-to-end: three students, OCR fails permanently for one, one of the two
// polished students fails every sentence and is refunded.
func TestBatchPolishService_EndToEnd(t *testing.T) {
	ocr := &mockOCR{
		recognizeFunc: func(ctx context.Context, imageURL string) (string, error) {
			if strings.Contains(imageURL, "broken") {
				return "", errors.New("unreadable scan")
			}
			if strings.Contains(imageURL, "zhangsan") {
				return "张三\nI go to school yesterday. It be fun.", nil
			}
			return "李四\nWe plays football. He run fast.", nil
		},
	}
	model := &mockModel{
		extractNameFunc: func(ctx context.Context, ocrText string) (string, int, error) {
			return strings.SplitN(ocrText, "\n", 2)[0], 200, nil
		},
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			body := text[strings.Index(text, "\n")+1:]
			return SplitSentences(body), 200, nil
		},
		polishSentenceFunc: func(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error) {
			// Every sentence of 李四's sheet fails.
			if strings.Contains(sentence, "plays") || strings.Contains(sentence, "run") {
				return nil, 500, errors.New("provider error")
			}
			return &dtos.PolishedSentenceResult{Polished: "Polished: " + sentence, Confidence: 0.9}, 200, nil
		},
	}

	svc, ledger, queue, _ := newBatchFixture(t, ocr, model)
	ctx := context.Background()
	ledger.balances["teacher-1"] = 100

	job, err := svc.CreateBatch(ctx, "teacher-1", &dtos.CreateBatchReq{
		Students:     []string{"张三", "李四", "王五"},
		Requirements: "past tense",
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	byName := make(map[string]string)
	for _, student := range job.Students {
		byName[student.Name] = student.ID
	}

	// OCR: two succeed, 王五's scan fails even after the automatic retry.
	if _, err := svc.SubmitOCR(ctx, job.ID, "teacher-1", byName["张三"], "https://img/zhangsan.jpg"); err != nil {
		t.Fatalf("SubmitOCR 张三 failed: %v", err)
	}
	if _, err := svc.SubmitOCR(ctx, job.ID, "teacher-1", byName["李四"], "https://img/lisi.jpg"); err != nil {
		t.Fatalf("SubmitOCR 李四 failed: %v", err)
	}
	if _, err := svc.SubmitOCR(ctx, job.ID, "teacher-1", byName["王五"], "https://img/broken.jpg"); err == nil {
		t.Fatal("Expected OCR failure for 王五")
	}

	// Extraction and matching for the two readable sheets.
	for _, name := range []string{"张三", "李四"} {
		if _, err := svc.ExtractSentences(ctx, job.ID, "teacher-1", byName[name]); err != nil {
			t.Fatalf("ExtractSentences %s failed: %v", name, err)
		}
	}

	match, err := svc.MatchNames(ctx, job.ID, "teacher-1")
	if err != nil {
		t.Fatalf("MatchNames failed: %v", err)
	}
	auto := 0
	for _, s := range match.Suggestions {
		if s.AutoConfirmed {
			auto++
		}
	}
	if auto != 2 {
		t.Fatalf("Expected 2 auto-confirmed matches, got %d (%+v)", auto, match.Suggestions)
	}

	// Polishing charges only for the two matched students: ceil(1.5*2) = 3.
	if _, err := svc.StartPolish(ctx, job.ID, "teacher-1"); err != nil {
		t.Fatalf("StartPolish failed: %v", err)
	}
	if len(ledger.spends) != 1 || ledger.spends[0].Amount != 3 {
		t.Fatalf("Expected single spend of 3, got %+v", ledger.spends)
	}
	if len(queue.items) != 4 {
		t.Fatalf("Expected 4 queued sentences, got %d", len(queue.items))
	}

	// Drain the queue the way a worker would.
	for _, item := range queue.items {
		if err := svc.ProcessSentence(ctx, item); err != nil {
			t.Fatalf("ProcessSentence failed: %v", err)
		}
	}

	done, err := svc.FinalizeIfDone(ctx, job.ID)
	if err != nil {
		t.Fatalf("FinalizeIfDone failed: %v", err)
	}
	if !done {
		t.Fatal("Expected job to finalize")
	}

	// 李四 failed every sentence: refund ceil(1.5*1) = 2, net charge 1.
	if balance, _ := ledger.Balance(ctx, "teacher-1"); balance != 99 {
		t.Errorf("Expected balance 99 (100 - 3 + 2), got %d", balance)
	}

	summary, err := svc.Results(ctx, job.ID, "teacher-1")
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if summary.MatchedStudents != 2 {
		t.Errorf("Expected 2 matched students, got %d", summary.MatchedStudents)
	}
	if summary.FullyFailed != 1 {
		t.Errorf("Expected 1 fully failed student, got %d", summary.FullyFailed)
	}
	if summary.PointsCost != 3 || summary.PointsRefunded != 2 {
		t.Errorf("Expected cost 3 / refund 2, got %d / %d", summary.PointsCost, summary.PointsRefunded)
	}

	// Failed sentences keep the original text at confidence zero.
	view, _ := svc.GetBatch(ctx, job.ID, "teacher-1")
	for _, student := range view.Students {
		for _, sentence := range student.Sentences {
			if sentence.State == string(constants.SentenceFailed) {
				if sentence.Polished != sentence.Original || sentence.Confidence != 0 {
					t.Errorf("Failed sentence should keep original at confidence 0, got %+v", sentence)
				}
			}
		}
	}

	// Retry is free and a successful retry never claws the refund back.
	model.polishSentenceFunc = func(ctx context.Context, sentence, requirements string) (*dtos.PolishedSentenceResult, int, error) {
		return &dtos.PolishedSentenceResult{Polished: "Fixed: " + sentence, Confidence: 0.85}, 200, nil
	}
	queue.items = nil

	if err := svc.RetryFailed(ctx, job.ID, "teacher-1"); err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if len(ledger.spends) != 1 {
		t.Errorf("Retry must not charge again, got %d spends", len(ledger.spends))
	}
	if len(queue.items) != 2 {
		t.Fatalf("Expected 2 re-queued sentences, got %d", len(queue.items))
	}

	for _, item := range queue.items {
		if err := svc.ProcessSentence(ctx, item); err != nil {
			t.Fatalf("Retry ProcessSentence failed: %v", err)
		}
	}
	if done, err := svc.FinalizeIfDone(ctx, job.ID); err != nil || !done {
		t.Fatalf("Expected retry round to finalize, done=%v err=%v", done, err)
	}

	if balance, _ := ledger.Balance(ctx, "teacher-1"); balance != 99 {
		t.Errorf("Expected balance to stay 99 after successful retry, got %d", balance)
	}

	summary, _ = svc.Results(ctx, job.ID, "teacher-1")
	if summary.FailedCount != 0 || summary.FullyFailed != 0 {
		t.Errorf("Expected no failures after retry, got %+v", summary)
	}
}

func TestBatchPolishService_RetryFailed_NothingToRetry(t *testing.T) {
	svc, ledger, _, _ := newBatchFixture(t, &mockOCR{}, &mockModel{
		extractSentFunc: func(ctx context.Context, text string) ([]string, int, error) {
			return []string{"One sentence."}, 200, nil
		},
	})
	ctx := context.Background()
	ledger.balances["teacher-1"] = 100

	job := setupMatchedJob(t, svc, ctx, []string{"张三"})

	err := svc.RetryFailed(ctx, job.ID, "teacher-1")
	if !errors.Is(err, ErrNoFailedSentences) {
		t.Fatalf("Expected ErrNoFailedSentences, got %v", err)
	}
}
