package anyix

import (
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// Decompile expands every compiled instruction of a message into its program
// id, account metas and data, in execution order. Each instruction receives
// its own copies of the metas so flags can be changed per instruction.
func Decompile(msg *solana.Message) ([]*solana.GenericInstruction, error) {
	metas, err := msg.AccountMetaList()
	if err != nil {
		return nil, errors.Wrap(err, "account meta list")
	}

	out := make([]*solana.GenericInstruction, 0, len(msg.Instructions))
	for i, compiled := range msg.Instructions {
		programID, err := msg.Program(compiled.ProgramIDIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}

		accounts := make(solana.AccountMetaSlice, 0, len(compiled.Accounts))
		for _, idx := range compiled.Accounts {
			if int(idx) >= len(metas) {
				return nil, errors.Errorf("instruction %d: account index %d out of range", i, idx)
			}
			meta := *metas[idx]
			accounts = append(accounts, &meta)
		}

		data := append([]byte(nil), compiled.Data...)
		out = append(out, solana.NewInstruction(programID, accounts, data))
	}

	return out, nil
}
