package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oracleconsulting/lightpoint-ingest/internal/domain"
)

// MockLegislationFetcher is a mock implementation of LegislationFetcher
type MockLegislationFetcher struct {
	mock.Mock
}

func (m *MockLegislationFetcher) ParseLegislationSection(ctx context.Context, act domain.ActConfig, sectionNumber string) (*domain.LegislationSection, error) {
	args := m.Called(ctx, act, sectionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LegislationSection), args.Error(1)
}

var testAct = domain.ActConfig{
	Identifier: "TMA1970",
	Name:       "Taxes Management Act 1970",
	BaseURL:    "https://www.legislation.gov.uk/ukpga/1970/9",
	Sections:   []string{"9A", "12B"},
}

func testProvision(act domain.ActConfig, num string) *domain.LegislationSection {
	return &domain.LegislationSection{
		ActIdentifier: act.Identifier,
		ActName:       act.Name,
		SectionNumber: num,
		Title:         "Notice of enquiry",
		Content:       "An officer of the Board may enquire into a return under section 8 or 8A of this Act if, within the time allowed, notice of intention to do so is given.",
		SourceURL:     act.SectionURL(num),
	}
}

func testCase() domain.CasePrecedent {
	return domain.CasePrecedent{
		CaseReference: "[2012] UKFTT 333 (TC)",
		CaseName:      "Hok Ltd v HMRC",
		Court:         "Upper Tribunal (Tax and Chancery)",
		Year:          2012,
		Summary:       "The Upper Tribunal held that the First-tier Tribunal has no judicial-review jurisdiction.",
		Outcome:       "HMRC appeal allowed",
		KeyPrinciples: []string{"no general fairness jurisdiction in the FTT"},
		SourceURL:     "https://www.bailii.org/uk/cases/UKUT/TCC/2012/363.html",
	}
}

func newTestLegalService(f *MockLegislationFetcher, e *MockEmbeddingClient, k *MockKnowledgeStore, r *MockRunStore, tx TxRunner) *LegalService {
	svc := NewLegalService(f, e, k, r, tx)
	svc.uuidGen = NewMockUUIDGenerator("run-id-1", "run-id-2", "run-id-3")
	return svc
}

func TestIngestLegislation_AddedProvisions(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "9A").Return(testProvision(testAct, "9A"), nil)
	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "12B").Return(testProvision(testAct, "12B"), nil)
	store.On("GetSectionChunks", mock.Anything, mock.Anything, "TMA1970").Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.1}, {0.2}}, nil)
	store.On("UpsertChunk", mock.Anything, mock.Anything).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestLegislation(context.Background(), testAct, nil)

	require.NoError(t, err)
	assert.Equal(t, "TMA1970", summary.SourceCode)
	assert.Equal(t, 2, summary.Sections)
	assert.Equal(t, 2, summary.Chunks)
	assert.Equal(t, 2, summary.Added)
	assert.Empty(t, summary.Errors)
	store.AssertNumberOfCalls(t, "UpsertChunk", 2)
	runs.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(run *domain.IngestionRun) bool {
		return run.SourceCode == "TMA1970" && run.Added == 2
	}))
}

func TestIngestLegislation_EntryFields(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	act := testAct
	act.Sections = []string{"9A"}
	fetcher.On("ParseLegislationSection", mock.Anything, act, "9A").Return(testProvision(act, "9A"), nil)
	store.On("GetSectionChunks", mock.Anything, "9A", "TMA1970").Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.5}}, nil)

	var stored *domain.KnowledgeEntry
	store.On("UpsertChunk", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.KnowledgeEntry)
	}).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.IngestLegislation(context.Background(), act, nil)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.CategoryLegislation, stored.Category)
	assert.Equal(t, domain.DocumentTypeLegislation, stored.DocumentType)
	assert.Equal(t, "9A", stored.SectionReference)
	assert.Equal(t, "TMA1970", stored.ManualCode)
	assert.Equal(t, "Taxes Management Act 1970, s 9A", stored.CitationFormat)
	assert.Equal(t, "Taxes Management Act 1970", stored.Source)
	assert.Equal(t, "https://www.legislation.gov.uk/ukpga/1970/9/section/9A", stored.SourceURL)
	assert.Equal(t, 0, stored.ChunkIndex)
	assert.Equal(t, 1, stored.TotalChunks)
}

func TestIngestLegislation_SkipsThinProvision(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "9A").Return(testProvision(testAct, "9A"), nil)
	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "12B").Return(nil, nil)
	store.On("GetSectionChunks", mock.Anything, "9A", "TMA1970").Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.1}}, nil)
	store.On("UpsertChunk", mock.Anything, mock.Anything).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestLegislation(context.Background(), testAct, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sections)
	assert.Equal(t, 1, summary.Added)
	assert.Empty(t, summary.Errors)
}

func TestIngestLegislation_FetchErrorRecorded(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "9A").Return(nil, errors.New("status 500"))
	fetcher.On("ParseLegislationSection", mock.Anything, testAct, "12B").Return(testProvision(testAct, "12B"), nil)
	store.On("GetSectionChunks", mock.Anything, "12B", "TMA1970").Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.1}}, nil)
	store.On("UpsertChunk", mock.Anything, mock.Anything).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestLegislation(context.Background(), testAct, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Added)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "9A", summary.Errors[0].Section)
	assert.False(t, summary.Fatal())
}

func TestIngestLegislation_UnchangedSkipsEmbedding(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	act := testAct
	act.Sections = []string{"9A"}
	sec := testProvision(act, "9A")
	existing := []*domain.KnowledgeEntry{{SectionReference: "9A", ManualCode: "TMA1970", Content: sec.Content}}

	fetcher.On("ParseLegislationSection", mock.Anything, act, "9A").Return(sec, nil)
	store.On("GetSectionChunks", mock.Anything, "9A", "TMA1970").Return(existing, nil)
	store.On("TouchSection", mock.Anything, "9A", "TMA1970").Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestLegislation(context.Background(), act, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unchanged)
	embedder.AssertNotCalled(t, "GenerateEmbeddings", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpsertChunk", mock.Anything, mock.Anything)
}

func TestIngestLegislation_EmbeddingFailureAbortsRun(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	act := testAct
	act.Sections = []string{"9A"}
	fetcher.On("ParseLegislationSection", mock.Anything, act, "9A").Return(testProvision(act, "9A"), nil)
	store.On("GetSectionChunks", mock.Anything, "9A", "TMA1970").Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestLegislation(context.Background(), act, nil)

	require.Error(t, err)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "embedding batch", summary.Errors[0].Section)
	runs.AssertNumberOfCalls(t, "Create", 1)
}

func TestIngestCasePrecedents_FansOutTwoRecords(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	tx := &testTxRunner{repos: &testTxRepos{knowledge: store}}
	svc := newTestLegalService(fetcher, embedder, store, runs, tx)

	c := testCase()
	store.On("GetSectionChunks", mock.Anything, c.CaseReference, domain.CaseLawCode).Return([]*domain.KnowledgeEntry{}, nil)

	var texts []string
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		texts = args.Get(1).([]string)
	}).Return([][]float32{{0.1}, {0.2}}, nil)

	var stored []*domain.KnowledgeEntry
	store.On("UpsertChunk", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = append(stored, args.Get(1).(*domain.KnowledgeEntry))
	}).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestCasePrecedents(context.Background(), []domain.CasePrecedent{c}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.CaseLawCode, summary.SourceCode)
	assert.Equal(t, 1, summary.Sections)
	assert.Equal(t, 2, summary.Chunks)
	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, 1, tx.called)

	// One embedding per record: the full text and the summary card.
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], c.Summary)
	assert.Contains(t, texts[1], "Outcome: HMRC appeal allowed")

	require.Len(t, stored, 2)
	full, card := stored[0], stored[1]
	assert.Equal(t, 0, full.ChunkIndex)
	assert.Equal(t, "Hok Ltd v HMRC", full.Title)
	assert.Equal(t, []float32{0.1}, full.Embedding)
	assert.Equal(t, 1, card.ChunkIndex)
	assert.Equal(t, "Hok Ltd v HMRC (summary card)", card.Title)
	assert.Equal(t, []float32{0.2}, card.Embedding)
	for _, e := range stored {
		assert.Equal(t, domain.CategoryCaseLaw, e.Category)
		assert.Equal(t, domain.DocumentTypeCaseLaw, e.DocumentType)
		assert.Equal(t, c.CaseReference, e.SectionReference)
		assert.Equal(t, domain.CaseLawCode, e.ManualCode)
		assert.Equal(t, "Hok Ltd v HMRC [2012] UKFTT 333 (TC)", e.CitationFormat)
		assert.Equal(t, 2, e.TotalChunks)
	}
}

func TestIngestCasePrecedents_UnchangedSkipsEmbedding(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	tx := &testTxRunner{repos: &testTxRepos{knowledge: store}}
	svc := newTestLegalService(fetcher, embedder, store, runs, tx)

	c := testCase()
	existing := []*domain.KnowledgeEntry{
		{SectionReference: c.CaseReference, ChunkIndex: 0, Content: caseFullText(c)},
		{SectionReference: c.CaseReference, ChunkIndex: 1, Content: caseCardText(c)},
	}
	store.On("GetSectionChunks", mock.Anything, c.CaseReference, domain.CaseLawCode).Return(existing, nil)
	store.On("TouchSection", mock.Anything, c.CaseReference, domain.CaseLawCode).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestCasePrecedents(context.Background(), []domain.CasePrecedent{c}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Unchanged)
	assert.Zero(t, tx.called)
	embedder.AssertNotCalled(t, "GenerateEmbeddings", mock.Anything, mock.Anything)
}

func TestIngestCasePrecedents_TxFailureRecordsBothRecords(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	tx := &testTxRunner{err: errors.New("deadlock detected")}
	svc := newTestLegalService(fetcher, embedder, store, runs, tx)

	c := testCase()
	store.On("GetSectionChunks", mock.Anything, c.CaseReference, domain.CaseLawCode).Return([]*domain.KnowledgeEntry{}, nil)
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return([][]float32{{0.1}, {0.2}}, nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestCasePrecedents(context.Background(), []domain.CasePrecedent{c}, nil)

	require.NoError(t, err)
	assert.Zero(t, summary.Added)
	require.Len(t, summary.Errors, 2)
	for _, e := range summary.Errors {
		assert.Equal(t, c.CaseReference, e.Section)
		assert.Contains(t, e.Error, "deadlock")
	}
	runs.AssertNumberOfCalls(t, "Create", 1)
}

func TestIngestSeedPrecedents(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	tx := &testTxRunner{repos: &testTxRepos{knowledge: store}}
	svc := newTestLegalService(fetcher, embedder, store, runs, tx)

	seeds := domain.SeedPrecedents()
	store.On("GetSectionChunks", mock.Anything, mock.Anything, domain.CaseLawCode).Return([]*domain.KnowledgeEntry{}, nil)
	vectors := make([][]float32, len(seeds)*2)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	embedder.On("GenerateEmbeddings", mock.Anything, mock.Anything).Return(vectors, nil)
	store.On("UpsertChunk", mock.Anything, mock.Anything).Return(nil)
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summary, err := svc.IngestSeedPrecedents(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, len(seeds), summary.Sections)
	assert.Equal(t, len(seeds)*2, summary.Added)
	assert.Equal(t, len(seeds), tx.called)
}

func TestIngestAllLegislation(t *testing.T) {
	fetcher := new(MockLegislationFetcher)
	embedder := new(MockEmbeddingClient)
	store := new(MockKnowledgeStore)
	runs := new(MockRunStore)
	svc := newTestLegalService(fetcher, embedder, store, runs, &testTxRunner{})

	// Every fetch fails; each Act still gets its own audited summary.
	fetcher.On("ParseLegislationSection", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("status 500"))
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)

	summaries, err := svc.IngestAllLegislation(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, summaries, len(domain.Acts()))
	for i, act := range domain.Acts() {
		assert.Equal(t, act.Identifier, summaries[i].SourceCode)
		assert.Len(t, summaries[i].Errors, len(act.Sections))
	}
	runs.AssertNumberOfCalls(t, "Create", len(domain.Acts()))
}
