package service

import "context"

type testTxRepos struct {
	knowledge KnowledgeStore
}

func (t *testTxRepos) Knowledge() KnowledgeStore {
	return t.knowledge
}

type testTxRunner struct {
	repos  TxRepositories
	called int
	err    error
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called++
	if t.err != nil {
		return t.err
	}
	return fn(t.repos)
}
