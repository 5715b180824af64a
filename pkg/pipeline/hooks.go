package pipeline

import (
	"go.uber.org/zap"
)

// TransactionProcessedHook is called once per RunForTransaction, after outputs are
// written. result is nil when err is set.
type TransactionProcessedHook func(transactionHash string, result *TransactionResult, err error)

func (p *Pipeline) AddTransactionProcessedHook(hook TransactionProcessedHook) {
	p.transactionProcessedHooks = append(p.transactionProcessedHooks, hook)
}

func (p *Pipeline) runTransactionProcessedHooks(transactionHash string, result *TransactionResult, err error) {
	for _, hook := range p.transactionProcessedHooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.Logger.Sugar().Errorw("Transaction processed hook panicked",
						zap.String("transactionHash", transactionHash),
						zap.Any("panic", r),
					)
				}
			}()
			hook(transactionHash, result, err)
		}()
	}
}
