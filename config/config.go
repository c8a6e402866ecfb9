// Package config holds the typed configuration recognized by the tree
// learner and the distributed collective layer, mirroring LightGBM's
// TreeConfig/NetworkConfig field-for-field.
package config

import (
	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

// TreeConfig is the set of options the SerialTreeLearner recognizes.
// Defaults match LightGBM's config.h TreeConfig.
type TreeConfig struct {
	// NumLeaves is the maximum number of leaves in one tree. Must be >= 2.
	NumLeaves int
	// MinDataInLeaf is the minimum number of rows required in a leaf.
	MinDataInLeaf int
	// MinSumHessianInLeaf is the minimum Σh required in a leaf.
	MinSumHessianInLeaf float64
	// FeatureFraction is the fraction of features sampled per tree, in (0, 1].
	FeatureFraction float64
	// FeatureFractionSeed seeds the per-tree feature sampler.
	FeatureFractionSeed int64
	// HistogramPoolSizeMiB bounds the histogram pool's memory; negative means unbounded.
	HistogramPoolSizeMiB float64
	// MaxDepth bounds leaf depth; <= 0 means unlimited.
	MaxDepth int
	// Lambda is the L2 regularization constant used inside leaf_gain.
	Lambda float64
	// Alpha is the L1 regularization constant applied to the leaf sum-gradient.
	Alpha float64
}

// DefaultTreeConfig returns the LightGBM defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		NumLeaves:            127,
		MinDataInLeaf:        100,
		MinSumHessianInLeaf:  10.0,
		FeatureFraction:      1.0,
		FeatureFractionSeed:  2,
		HistogramPoolSizeMiB: -1.0,
		MaxDepth:             -1,
		Lambda:               0.0,
		Alpha:                0.0,
	}
}

// Validate surfaces config errors at construction time, per the "fatal at
// construction, surface the offending value" policy.
func (c TreeConfig) Validate() error {
	if c.NumLeaves < 2 {
		return gbdterrors.NewConfigError("num_leaves", c.NumLeaves, "must be >= 2")
	}
	if c.FeatureFraction <= 0 || c.FeatureFraction > 1 {
		return gbdterrors.NewConfigError("feature_fraction", c.FeatureFraction, "must be in (0, 1]")
	}
	if c.MinDataInLeaf < 1 {
		return gbdterrors.NewConfigError("min_data_in_leaf", c.MinDataInLeaf, "must be >= 1")
	}
	if c.MinSumHessianInLeaf < 0 {
		return gbdterrors.NewConfigError("min_sum_hessian_in_leaf", c.MinSumHessianInLeaf, "must be >= 0")
	}
	if c.Lambda < 0 {
		return gbdterrors.NewConfigError("lambda_l2", c.Lambda, "must be >= 0")
	}
	return nil
}

// NetworkConfig configures the distributed collective layer.
// Defaults match LightGBM's config.h NetworkConfig.
type NetworkConfig struct {
	// NumMachines is the declared world size.
	NumMachines int
	// LocalListenPort is the port this peer listens on.
	LocalListenPort int
	// TimeOutMinutes is the socket timeout, in minutes.
	TimeOutMinutes int
	// MachineListFilename names the machine-list file to parse; may be empty
	// when the peer list is supplied programmatically.
	MachineListFilename string
}

// DefaultNetworkConfig returns the LightGBM defaults.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		NumMachines:     1,
		LocalListenPort: 12400,
		TimeOutMinutes:  120,
	}
}

// Validate surfaces config errors at construction time.
func (c NetworkConfig) Validate() error {
	if c.NumMachines < 1 {
		return gbdterrors.NewConfigError("num_machines", c.NumMachines, "must be >= 1")
	}
	if c.LocalListenPort <= 0 {
		return gbdterrors.NewConfigError("local_listen_port", c.LocalListenPort, "must be > 0")
	}
	return nil
}
