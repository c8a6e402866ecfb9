// Package tree implements Tree (C10): the in-memory output of one boosting
// iteration - a leaf-wise binary tree whose internal nodes carry the split
// that produced them and whose leaves carry the model's real-valued output.
package tree

// node is an internal split node. leftChild/rightChild are leaf ids when
// negative-encoded (LightGBM's convention: a negative child index ~x means
// "leaf x"), but this implementation keeps leaf/node ids in separate
// namespaces instead and stores them directly to keep the Go types honest.
type node struct {
	// featureIndex is the dataset's stable feature_index, not the sampled
	// feature slot used during training.
	featureIndex int
	thresholdBin int
	thresholdVal float64
	gain         float64

	leftIsLeaf  bool
	rightIsLeaf bool
	left        int // leaf id or node id, per leftIsLeaf
	right       int // leaf id or node id, per rightIsLeaf
}

// Tree is grown leaf-wise: it starts as a single leaf (leaf 0) and each
// Split call turns one leaf into an internal node with two leaf children
// (one of which may later be split further).
type Tree struct {
	maxLeaves int
	nodes     []node
	// leafParentNode[l] is the index into nodes of the node whose child
	// leaf l currently is, or -1 for the root leaf before any split.
	leafParentNode []int
	leafDepth      []int
	leafOutput     []float64
	numLeaves      int
}

// New allocates a tree with a single root leaf (leaf 0, depth 0), sized to
// grow up to maxLeaves leaves.
func New(maxLeaves int) *Tree {
	t := &Tree{
		maxLeaves:      maxLeaves,
		leafParentNode: make([]int, maxLeaves),
		leafDepth:      make([]int, maxLeaves),
		leafOutput:     make([]float64, maxLeaves),
		numLeaves:      1,
	}
	t.leafParentNode[0] = -1
	return t
}

// NumLeaves reports how many leaves the tree currently has.
func (t *Tree) NumLeaves() int { return t.numLeaves }

// LeafDepth returns leaf's depth (root leaf has depth 0).
func (t *Tree) LeafDepth(leaf int) int { return t.leafDepth[leaf] }

// LeafOutput returns leaf's current real-valued output.
func (t *Tree) LeafOutput(leaf int) float64 { return t.leafOutput[leaf] }

// SetLeafOutput assigns leaf's output directly, used when a leaf's pending
// split is abandoned and its output must still reflect its aggregate sums.
func (t *Tree) SetLeafOutput(leaf int, output float64) { t.leafOutput[leaf] = output }

// Split turns leaf into an internal node testing
// dataset_feature[featureIndex] against thresholdBin (annotated with the
// real-valued thresholdVal for downstream prediction and the gain that
// justified the split), and allocates a new leaf id for the right child.
// leaf itself continues to be used as the left child's leaf id. Returns the
// new right leaf's id.
func (t *Tree) Split(leaf, featureIndex, thresholdBin int, thresholdVal, gain, leftOutput, rightOutput float64) int {
	nodeIdx := len(t.nodes)
	parentNode := t.leafParentNode[leaf]
	depth := t.leafDepth[leaf]

	t.nodes = append(t.nodes, node{
		featureIndex: featureIndex,
		thresholdBin: thresholdBin,
		thresholdVal: thresholdVal,
		gain:         gain,
		leftIsLeaf:   true,
		rightIsLeaf:  true,
		left:         leaf,
	})

	if parentNode >= 0 {
		p := &t.nodes[parentNode]
		if p.leftIsLeaf && p.left == leaf {
			p.left = nodeIdx
			p.leftIsLeaf = false
		} else if p.rightIsLeaf && p.right == leaf {
			p.right = nodeIdx
			p.rightIsLeaf = false
		}
	}

	right := t.numLeaves
	t.numLeaves++

	t.nodes[nodeIdx].right = right
	t.leafParentNode[leaf] = nodeIdx
	t.leafParentNode[right] = nodeIdx
	t.leafDepth[leaf] = depth + 1
	t.leafDepth[right] = depth + 1
	t.leafOutput[leaf] = leftOutput
	t.leafOutput[right] = rightOutput

	return right
}
