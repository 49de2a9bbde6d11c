package signer

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

type service struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewFromMnemonic creates a signer for the account at the default Ethereum
// derivation path of a BIP39 mnemonic.
//nolint:ireturn // Returning interface is intentional for DI
func NewFromMnemonic(mnemonic string) (Service, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, errors.New("mnemonic is empty")
	}

	seed := mnemonicToSeed(mnemonic, "")
	defer zeroize(seed)

	keyBytes, err := derivePrivateKey(seed, DefaultDerivationPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}
	defer zeroize(keyBytes)

	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key to ECDSA")
	}

	return newService(privateKey)
}

// NewFromPrivateKey creates a signer from a raw hex-encoded private key. A
// leading 0x prefix is tolerated.
//nolint:ireturn // Returning interface is intentional for DI
func NewFromPrivateKey(hexKey string) (Service, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("private key is empty")
	}

	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	return newService(privateKey)
}

func newService(privateKey *ecdsa.PrivateKey) (Service, error) {
	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to cast public key to ECDSA")
	}

	return &service{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Address returns the source account address.
func (s *service) Address() common.Address {
	return s.address
}

// SignTransaction signs a legacy gas-price transaction.
func (s *service) SignTransaction(_ context.Context, req *SignRequest) (*SignResponse, error) {
	if req == nil {
		return nil, errors.New("sign request is nil")
	}

	if req.From != s.address {
		return nil, errors.Errorf("from address %s does not match signer account %s", req.From, s.address)
	}

	if req.ChainID == nil || req.ChainID.Sign() <= 0 {
		return nil, errors.New("chain ID is required")
	}

	if req.Value == nil || req.Value.Sign() < 0 {
		return nil, errors.New("value must be non-negative")
	}

	if req.GasPrice == nil || req.GasPrice.Sign() <= 0 {
		return nil, errors.New("gas price is required")
	}

	if req.GasLimit == 0 {
		return nil, errors.New("gas limit is required")
	}

	to := req.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce,
		GasPrice: req.GasPrice,
		Gas:      req.GasLimit,
		To:       &to,
		Value:    req.Value,
		Data:     req.Data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(req.ChainID), s.privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	rawTx, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal transaction")
	}

	return &SignResponse{
		RawTransaction: rawTx,
		Tx:             signedTx,
		TxHash:         signedTx.Hash(),
	}, nil
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
