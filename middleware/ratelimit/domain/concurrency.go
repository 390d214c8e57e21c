package domain

import "context"

// SlotPool limita quantas gerações rodam ao mesmo tempo.
//
// Acquire espera por uma vaga até o ctx encerrar; o release devolvido
// deve ser chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
