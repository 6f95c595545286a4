package anyix

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/iqbalbaharum/anyix-swap/internal/coder"
	"github.com/iqbalbaharum/anyix-swap/internal/config"
	"github.com/iqbalbaharum/anyix-swap/internal/instructions"
	"github.com/iqbalbaharum/anyix-swap/internal/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMints map[solana.PublicKey]solana.PublicKey

func (f fakeMints) VaultMint(_ context.Context, vault solana.PublicKey) (solana.PublicKey, error) {
	mint, ok := f[vault]
	if !ok {
		return solana.PublicKey{}, errors.New("account not found")
	}
	return mint, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

type fixture struct {
	payer      solana.PublicKey
	inputMint  solana.PublicKey
	outputMint solana.PublicKey
	vaultA     solana.PublicKey
	params     Params
}

func newFixture() *fixture {
	f := &fixture{
		payer:      newKey(),
		inputMint:  newKey(),
		outputMint: newKey(),
		vaultA:     newKey(),
	}
	f.params = Params{
		ProgramID:  newKey(),
		Authority:  newKey(),
		Management: newKey(),
		Vault:      newKey(),
		InputMint:  f.inputMint,
		OutputMint: f.outputMint,
	}
	return f
}

func venueIx(t *testing.T, p coder.Protocol, args coder.VenueArgs, accounts []*solana.AccountMeta) *solana.GenericInstruction {
	data, err := coder.EncodeVenue(p, args)
	require.NoError(t, err)
	return solana.NewInstruction(config.JUPITER_V3, accounts, data)
}

func (f *fixture) raydiumIx(t *testing.T) *solana.GenericInstruction {
	accounts := []*solana.AccountMeta{
		solana.Meta(newKey()),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(newKey()),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(f.payer).SIGNER(),
	}
	return venueIx(t, coder.RaydiumSwap, coder.VenueArgs{
		Inputs: coder.SwapInputs{InputAmount: pointer.ToUint64(1_000_000), MinOutput: 990_000},
	}, accounts)
}

func (f *fixture) whirlpoolIx(t *testing.T, side coder.Side) *solana.GenericInstruction {
	accounts := make([]*solana.AccountMeta, 0, 12)
	accounts = append(accounts,
		solana.Meta(newKey()),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(f.payer).SIGNER(),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(newKey()).WRITE(),
		solana.Meta(f.vaultA).WRITE(),
	)
	for len(accounts) < 12 {
		accounts = append(accounts, solana.Meta(newKey()).WRITE())
	}
	return venueIx(t, coder.Whirlpool, coder.VenueArgs{
		Inputs: coder.SwapInputs{MinOutput: 5, Side: side},
	}, accounts)
}

func (f *fixture) ataIx() *solana.GenericInstruction {
	return solana.NewInstruction(config.ASSOCIATED_TOKEN_PROGRAM, []*solana.AccountMeta{
		solana.Meta(f.payer).SIGNER().WRITE(),
		solana.Meta(newKey()).WRITE(),
	}, []byte{})
}

func (f *fixture) transaction(t *testing.T, ixs ...solana.Instruction) *solana.Transaction {
	tx, err := solana.NewTransaction(ixs, solana.Hash{}, solana.TransactionPayer(f.payer))
	require.NoError(t, err)
	return tx
}

func TestProcessTransaction(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{f.vaultA: f.inputMint})

	tx := f.transaction(t, f.ataIx(), f.raydiumIx(t), f.whirlpoolIx(t, coder.SideBid))

	res, err := p.ProcessTransaction(context.Background(), tx, f.params)
	require.NoError(t, err)
	assert.Equal(t, []coder.Protocol{coder.RaydiumSwap, coder.Whirlpool}, res.Protocols)

	accounts := res.Instruction.Accounts()
	require.Len(t, accounts, 4+7+12)
	assert.Equal(t, f.params.Authority, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, f.params.Management, accounts[1].PublicKey)
	assert.Equal(t, f.params.Vault, accounts[2].PublicKey)
	assert.Equal(t, config.JUPITER_V3, accounts[3].PublicKey)
	for _, account := range accounts[4:] {
		assert.False(t, account.IsSigner, account.PublicKey.String())
	}
	assert.Equal(t, f.vaultA, accounts[4+7+5].PublicKey)
	assert.Equal(t, f.params.ProgramID, res.Instruction.ProgramID())

	data, err := res.Instruction.Data()
	require.NoError(t, err)
	packed, err := instructions.DecodeJupiterSwapData(data)
	require.NoError(t, err)

	batch, err := coder.Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, res.Batch, batch)
	assert.Equal(t, len(accounts)-4, batch.AccountTotal())

	parts, err := coder.Partition(batch, accounts[4:])
	require.NoError(t, err)
	assert.Len(t, parts[0], 7)
	assert.Len(t, parts[1], 12)

	protocol, inputs, err := coder.DecodeEntryData(batch.InstructionDatas[1])
	require.NoError(t, err)
	assert.Equal(t, coder.Whirlpool, protocol)
	assert.Equal(t, coder.SideAsk, inputs.Side)

	protocol, inputs, err = coder.DecodeEntryData(batch.InstructionDatas[0])
	require.NoError(t, err)
	assert.Equal(t, coder.RaydiumSwap, protocol)
	assert.Equal(t, uint64(1_000_000), *inputs.InputAmount)
	assert.Equal(t, uint64(990_000), inputs.MinOutput)
}

func TestWhirlpoolSideFromOutputMint(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{f.vaultA: f.outputMint})

	res, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.whirlpoolIx(t, coder.SideAsk)}, f.params)
	require.NoError(t, err)

	_, inputs, err := coder.DecodeEntryData(res.Batch.InstructionDatas[0])
	require.NoError(t, err)
	assert.Equal(t, coder.SideBid, inputs.Side)
}

func TestWhirlpoolSideUnknownMintKeepsPayload(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{f.vaultA: newKey()})

	res, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.whirlpoolIx(t, coder.SideBid)}, f.params)
	require.NoError(t, err)

	_, inputs, err := coder.DecodeEntryData(res.Batch.InstructionDatas[0])
	require.NoError(t, err)
	assert.Equal(t, coder.SideBid, inputs.Side)
}

func TestProcessRejectsUntrustedProgram(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{})

	transfer := system.NewTransferInstruction(1, f.payer, newKey()).Build()
	tx := f.transaction(t, f.raydiumIx(t), transfer)

	_, err := p.ProcessTransaction(context.Background(), tx, f.params)
	assert.ErrorIs(t, err, ErrUntrustedProgram)
}

func TestProcessFailsOnDroppedInstruction(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{f.vaultA: f.inputMint})

	unknown := solana.NewInstruction(config.JUPITER_V3, []*solana.AccountMeta{solana.Meta(newKey())}, []byte{9, 9, 9, 9, 9, 9, 9, 9})
	ixs := []*solana.GenericInstruction{f.raydiumIx(t), unknown}

	_, err := p.ProcessInstructions(context.Background(), ixs, f.params)
	assert.ErrorIs(t, err, ErrInstructionCountMismatch)
	assert.ErrorIs(t, err, coder.ErrUnrecognizedInstruction)
	assert.Contains(t, err.Error(), "got 1, want 2")
}

func TestProcessFailsWhenVaultMintUnavailable(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{})

	_, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.whirlpoolIx(t, coder.SideAsk)}, f.params)
	assert.ErrorIs(t, err, ErrInstructionCountMismatch)
	assert.ErrorIs(t, err, ErrAccountResolution)
}

// accountServer answers every getAccountInfo call with the given account.
func accountServer(t *testing.T, owner solana.PublicKey, data []byte) *rpc.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int    `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getAccountInfo", req.Method)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
					"owner":      owner.String(),
					"lamports":   1,
					"executable": false,
				},
			},
		})
	}))
	t.Cleanup(server.Close)

	return rpc.NewClient(server.URL, quietLogger())
}

func TestProcessRejectsNonTokenVault(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), accountServer(t, solana.SystemProgramID, f.inputMint.Bytes()))

	_, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.whirlpoolIx(t, coder.SideBid)}, f.params)
	assert.ErrorIs(t, err, ErrAccountResolution)
	assert.ErrorIs(t, err, ErrInstructionCountMismatch)
}

func TestProcessResolvesTokenVault(t *testing.T) {
	f := newFixture()
	data := make([]byte, 165)
	copy(data, f.inputMint.Bytes())
	p := NewPipeline(quietLogger(), accountServer(t, solana.TokenProgramID, data))

	res, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.whirlpoolIx(t, coder.SideBid)}, f.params)
	require.NoError(t, err)
	require.Len(t, res.Batch.InstructionDatas, 1)

	_, inputs, err := coder.DecodeEntryData(res.Batch.InstructionDatas[0])
	require.NoError(t, err)
	assert.Equal(t, coder.SideAsk, inputs.Side)
}

func TestProcessAppliesReplacements(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{f.vaultA: f.inputMint})

	replacement := newKey()
	f.params.Replacements = map[solana.PublicKey]solana.PublicKey{f.payer: replacement}

	res, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.raydiumIx(t)}, f.params)
	require.NoError(t, err)

	last := res.Instruction.Accounts()[4+6]
	assert.Equal(t, replacement, last.PublicKey)
	assert.False(t, last.IsSigner)
	for _, account := range res.Instruction.Accounts() {
		assert.NotEqual(t, f.payer, account.PublicKey)
	}
}

func TestProcessWithOnlyAtaInstructions(t *testing.T) {
	f := newFixture()
	p := NewPipeline(quietLogger(), fakeMints{})

	res, err := p.ProcessInstructions(context.Background(), []*solana.GenericInstruction{f.ataIx()}, f.params)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), res.Batch.NumInstructions)
	assert.Len(t, res.Instruction.Accounts(), 4)
}
