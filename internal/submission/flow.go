// Package submission runs the token creation flow: validate the request,
// pin the image and metadata, build and co-sign the creation transaction,
// have the wallet sign it, submit it and wait for confirmation.
package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/rs/zerolog"

	"token-forge/internal/domain"
	"token-forge/internal/observability"
	"token-forge/internal/pinning"
	"token-forge/internal/solana"
	"token-forge/internal/wallet"
)

// Step names, in execution order.
const (
	StepValidate       = "validate"
	StepUploadImage    = "upload_image"
	StepUploadMetadata = "upload_metadata"
	StepGenerateMint   = "generate_mint"
	StepRentExemption  = "rent_exemption"
	StepDeriveHolder   = "derive_holder"
	StepAssemble       = "assemble"
	StepAnchor         = "anchor"
	StepCosign         = "cosign"
	StepWalletSign     = "wallet_sign"
	StepSubmit         = "submit"
	StepConfirm        = "confirm"
)

// Upload failure messages shown to the user.
var (
	ErrImageUpload    = errors.New("Failed to upload image to Pinata")
	ErrMetadataUpload = errors.New("Failed to upload metadata to Pinata")
)

// ErrMissingSignatures is returned when a transaction is submitted with an
// empty signature slot.
var ErrMissingSignatures = errors.New("transaction is missing required signatures")

// StepError reports the step a submission stopped at.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// uploadError shows only the user-facing message but keeps the cause
// reachable through errors.Is/As.
type uploadError struct {
	msg   error
	cause error
}

func (e *uploadError) Error() string   { return e.msg.Error() }
func (e *uploadError) Unwrap() []error { return []error{e.msg, e.cause} }

// KeyGenerator produces a fresh mint keypair.
type KeyGenerator func() types.Account

// Flow runs token submissions. It is safe for concurrent use; each Submit
// keeps its state on the stack.
type Flow struct {
	chain       solana.ChainClient
	pinner      pinning.Pinner
	keys        KeyGenerator
	description string
	cluster     string
	commitment  solana.Commitment
	onStep      func(step string)
	logger      zerolog.Logger
}

// Options for creating Flow.
type Options struct {
	Chain  solana.ChainClient
	Pinner pinning.Pinner

	// Keys defaults to types.NewAccount.
	Keys KeyGenerator

	// Description is embedded in every metadata document.
	Description string

	// Cluster selects the explorer link in the result.
	Cluster string

	// OnStep, when set, is called before each step runs.
	OnStep func(step string)

	Logger zerolog.Logger
}

// New creates a new Flow.
func New(opts Options) *Flow {
	keys := opts.Keys
	if keys == nil {
		keys = types.NewAccount
	}
	description := opts.Description
	if description == "" {
		description = domain.DefaultDescription
	}
	return &Flow{
		chain:       opts.Chain,
		pinner:      opts.Pinner,
		keys:        keys,
		description: description,
		cluster:     opts.Cluster,
		commitment:  solana.CommitmentConfirmed,
		onStep:      opts.OnStep,
		logger:      opts.Logger,
	}
}

// run is the state of one submission.
type run struct {
	wallet      wallet.Wallet
	owner       common.PublicKey
	req         domain.TokenRequest
	amount      uint64
	imageURI    string
	metadataURI string

	mint         types.Account
	rentLamports uint64
	holder       common.PublicKey
	instructions []types.Instruction
	anchor       *solana.Blockhash
	tx           types.Transaction
	txID         string
}

type step struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

func (f *Flow) steps() []step {
	return []step{
		{StepUploadImage, f.uploadImage},
		{StepUploadMetadata, f.uploadMetadata},
		{StepGenerateMint, f.generateMint},
		{StepRentExemption, f.rentExemption},
		{StepDeriveHolder, f.deriveHolder},
		{StepAssemble, f.assemble},
		{StepAnchor, f.anchorTx},
		{StepCosign, f.cosign},
		{StepWalletSign, f.walletSign},
		{StepSubmit, f.submit},
		{StepConfirm, f.confirm},
	}
}

// Submit runs one submission under w. The first failing step ends the run;
// completed effects such as pinned content are not undone.
func (f *Flow) Submit(ctx context.Context, w wallet.Wallet, req domain.TokenRequest) (*domain.CreationResult, error) {
	start := time.Now()

	r, err := f.validate(w, req)
	if err != nil {
		return nil, f.fail(StepValidate, err, start)
	}

	for _, s := range f.steps() {
		if f.onStep != nil {
			f.onStep(s.name)
		}
		stepStart := time.Now()
		err := s.fn(ctx, r)
		observability.RecordStep(s.name, time.Since(stepStart).Seconds(), err)
		if err != nil {
			return nil, f.fail(s.name, err, start)
		}
		f.logger.Debug().
			Str("step", s.name).
			Dur("took", time.Since(stepStart)).
			Msg("step done")
	}

	result := &domain.CreationResult{
		MintAddress:       r.mint.PublicKey.ToBase58(),
		AssociatedAccount: r.holder.ToBase58(),
		TxID:              r.txID,
		ImageURI:          r.imageURI,
		MetadataURI:       r.metadataURI,
		ExplorerURL:       domain.ExplorerTxURL(r.txID, f.cluster),
	}

	observability.RecordSubmission("success", time.Since(start).Seconds())
	f.logger.Info().
		Str("mint", result.MintAddress).
		Str("holder", result.AssociatedAccount).
		Str("tx", result.TxID).
		Dur("took", time.Since(start)).
		Msg("token created")

	return result, nil
}

func (f *Flow) fail(stepName string, err error, start time.Time) error {
	observability.RecordSubmission(stepName, time.Since(start).Seconds())

	ev := f.logger.Error()
	if domain.IsValidationError(err) {
		ev = f.logger.Warn()
	}
	var upload *uploadError
	if errors.As(err, &upload) {
		ev = ev.AnErr("cause", upload.cause)
	}
	ev.Err(err).Str("step", stepName).Msg("token creation failed")

	return &StepError{Step: stepName, Err: err}
}

// validate checks preconditions in order: wallet, image, name/symbol, supply.
func (f *Flow) validate(w wallet.Wallet, req domain.TokenRequest) (*run, error) {
	if w == nil {
		return nil, domain.ErrWalletNotConnected
	}
	owner, ok := w.PublicKey()
	if !ok {
		return nil, domain.ErrWalletNotConnected
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	amount, err := req.BaseUnits()
	if err != nil {
		return nil, err
	}
	return &run{wallet: w, owner: owner, req: req, amount: amount}, nil
}

func (f *Flow) uploadImage(ctx context.Context, r *run) error {
	img := r.req.Image
	uri, err := f.pinner.PinFile(ctx, img.Filename, img.ContentType, img.Data)
	if err != nil {
		return &uploadError{msg: ErrImageUpload, cause: err}
	}
	r.imageURI = uri
	return nil
}

func (f *Flow) uploadMetadata(ctx context.Context, r *run) error {
	doc := domain.NewMetadataDocument(r.req, f.description, r.imageURI)
	uri, err := f.pinner.PinJSON(ctx, r.req.Trimmed().Symbol+"-metadata.json", doc)
	if err != nil {
		return &uploadError{msg: ErrMetadataUpload, cause: err}
	}
	r.metadataURI = uri
	return nil
}

func (f *Flow) generateMint(_ context.Context, r *run) error {
	r.mint = f.keys()
	return nil
}

func (f *Flow) rentExemption(ctx context.Context, r *run) error {
	lamports, err := f.chain.GetMinimumBalanceForRentExemption(ctx, domain.MintAccountSize)
	if err != nil {
		return fmt.Errorf("get rent exemption: %w", err)
	}
	r.rentLamports = lamports
	return nil
}

func (f *Flow) deriveHolder(_ context.Context, r *run) error {
	holder, err := solana.FindAssociatedTokenAddress(r.owner, r.mint.PublicKey)
	if err != nil {
		return fmt.Errorf("derive associated token account: %w", err)
	}
	r.holder = holder
	return nil
}

func (f *Flow) assemble(_ context.Context, r *run) error {
	r.instructions = CreateTokenInstructions(CreateTokenParams{
		Owner:        r.owner,
		Mint:         r.mint.PublicKey,
		Holder:       r.holder,
		RentLamports: r.rentLamports,
		Amount:       r.amount,
	})
	return nil
}

func (f *Flow) anchorTx(ctx context.Context, r *run) error {
	bh, err := f.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("get latest blockhash: %w", err)
	}
	r.anchor = bh

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        r.owner,
			RecentBlockhash: bh.Hash,
			Instructions:    r.instructions,
		}),
	})
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}
	r.tx = tx
	return nil
}

func (f *Flow) cosign(_ context.Context, r *run) error {
	msg, err := r.tx.Message.Serialize()
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}
	if err := r.tx.AddSignature(r.mint.Sign(msg)); err != nil {
		return fmt.Errorf("add mint signature: %w", err)
	}
	return nil
}

func (f *Flow) walletSign(ctx context.Context, r *run) error {
	signed, err := r.wallet.SignTransaction(ctx, r.tx)
	if err != nil {
		return err
	}
	r.tx = signed
	return nil
}

func (f *Flow) submit(ctx context.Context, r *run) error {
	for _, sig := range r.tx.Signatures {
		if isZero(sig) {
			return ErrMissingSignatures
		}
	}
	raw, err := r.tx.Serialize()
	if err != nil {
		return fmt.Errorf("serialize transaction: %w", err)
	}

	txID, err := f.chain.SendTransaction(ctx, raw)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	r.txID = txID
	return nil
}

func (f *Flow) confirm(ctx context.Context, r *run) error {
	if err := f.chain.ConfirmTransaction(ctx, r.txID, r.anchor, f.commitment); err != nil {
		return fmt.Errorf("confirm transaction %s: %w", r.txID, err)
	}
	return nil
}

func isZero(sig types.Signature) bool {
	if len(sig) == 0 {
		return true
	}
	for _, b := range sig {
		if b != 0 {
			return false
		}
	}
	return true
}
