package sol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// Jito block engine tip accounts
var JitoTipAccounts = []solana.PublicKey{
	solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MustPublicKeyFromBase58("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MustPublicKeyFromBase58("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MustPublicKeyFromBase58("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

const defaultConfirmPollInterval = 700 * time.Millisecond

// ComputeBudgetInstructions returns the compute unit limit and price
// instructions. Zero values are omitted.
func ComputeBudgetInstructions(unitLimit uint32, microLamportsPerUnit uint64) ([]solana.Instruction, error) {
	instrs := make([]solana.Instruction, 0, 2)
	if unitLimit > 0 {
		cuLimitIx, err := computebudget.NewSetComputeUnitLimitInstruction(unitLimit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build compute unit limit instruction: %w", err)
		}
		instrs = append(instrs, cuLimitIx)
	}
	if microLamportsPerUnit > 0 {
		cuPriceIx, err := computebudget.NewSetComputeUnitPriceInstruction(microLamportsPerUnit).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build compute unit price instruction: %w", err)
		}
		instrs = append(instrs, cuPriceIx)
	}
	return instrs, nil
}

// JitoTipInstruction transfers lamports from payer to a random tip account
func JitoTipInstruction(payer solana.PublicKey, lamports uint64) solana.Instruction {
	tipAccount := JitoTipAccounts[rand.IntN(len(JitoTipAccounts))]
	return system.NewTransferInstruction(lamports, payer, tipAccount).Build()
}

// BuildTransaction wraps instrs in a transaction on the latest blockhash
func (c *Client) BuildTransaction(ctx context.Context, payer solana.PublicKey, instrs ...solana.Instruction) (*solana.Transaction, error) {
	var recent *rpc.GetLatestBlockhashResult
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) (err error) {
		recent, err = c.RpcClient.GetLatestBlockhash(ctx, c.commitment)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instrs, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}

// SignTransaction signs tx with every key it requires. A required signer
// missing from signers is an error.
func SignTransaction(tx *solana.Transaction, signers ...solana.PrivateKey) error {
	keys := make(map[solana.PublicKey]*solana.PrivateKey, len(signers))
	for i := range signers {
		keys[signers[i].PublicKey()] = &signers[i]
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

// SimulateTransaction runs tx against the current bank and fails with the
// program logs when it errors
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulateTransactionResult, error) {
	var res *rpc.SimulateTransactionResponse
	err := c.call(ctx, "simulateTransaction", func(ctx context.Context) (err error) {
		res, err = c.RpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
			SigVerify:  true,
			Commitment: c.commitment,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("simulate transaction: %w", err)
	}
	if res == nil || res.Value == nil {
		return nil, errors.New("simulate transaction: empty result")
	}
	if res.Value.Err != nil {
		for _, line := range res.Value.Logs {
			c.logger.Debug("simulation log", zap.String("line", line))
		}
		return res.Value, fmt.Errorf("simulation failed: %v", res.Value.Err)
	}
	return res.Value, nil
}

// SendTransaction submits a signed transaction. It is not retried here:
// the node retries up to maxRetries times itself.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, skipPreflight bool) (solana.Signature, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	retries := uint(c.maxRetries)
	sig, err := c.RpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       skipPreflight,
		PreflightCommitment: c.commitment,
		MaxRetries:          &retries,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	c.logger.Info("transaction sent", zap.String("signature", sig.String()))
	return sig, nil
}

// SendBundle submits signed transactions as one Jito bundle and returns the bundle id
func (c *Client) SendBundle(ctx context.Context, txs ...*solana.Transaction) (string, error) {
	if c.JitoClient == nil {
		return "", errors.New("jito rpc is not configured")
	}
	if len(txs) == 0 {
		return "", errors.New("bundle is empty")
	}

	encoded := make([]string, 0, len(txs))
	for _, tx := range txs {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return "", fmt.Errorf("serialize transaction: %w", err)
		}
		encoded = append(encoded, base58.Encode(raw))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	result, err := c.JitoClient.SendBundle([][]string{encoded})
	if err != nil {
		return "", fmt.Errorf("send bundle: %w", err)
	}

	var bundleID string
	if err := json.Unmarshal(result, &bundleID); err != nil {
		return "", fmt.Errorf("decode bundle id %s: %w", string(result), err)
	}
	c.logger.Info("bundle sent", zap.String("bundleId", bundleID), zap.Int("transactions", len(txs)))
	return bundleID, nil
}

// WaitForConfirmation polls the signature status until it is confirmed,
// fails on chain, or ctx ends
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(defaultConfirmPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			result, err := c.RpcClient.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				c.logger.Debug("signature status failed", zap.String("signature", sig.String()), zap.Error(err))
				continue
			}
			if len(result.Value) == 0 || result.Value[0] == nil {
				continue
			}
			status := result.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}
