package collective

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
	gbdtlog "github.com/flowforge/gbdt/pkg/log"

	"github.com/flowforge/gbdt/config"
)

var logger = gbdtlog.GetLoggerWithName("gbdt.collective")

const (
	connectRetries   = 20
	connectRetryWait = 10 * time.Second
)

// Linkers holds the connection setup state for one peer in a distributed
// training run: its rank, the parsed machine list, the two collective
// topologies computed from (rank, num_machines), and the live connections
// to every peer its topologies require.
type Linkers struct {
	cfg config.NetworkConfig

	rank        int
	numMachines int
	clientIPs   []string
	clientPorts []int

	Bruck            BruckMap
	RecursiveHalving RecursiveHalvingMap

	mu    sync.Mutex
	conns map[int]net.Conn

	listener net.Listener
}

// ParseMachineList reads a machine-list file: one "host port" line per peer
// in rank order, with an optional "rank=N" line pinning the local rank.
func ParseMachineList(r *bufio.Scanner) (ips []string, ports []int, pinnedRank int, err error) {
	pinnedRank = -1
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "rank=") {
			n, convErr := strconv.Atoi(strings.TrimPrefix(line, "rank="))
			if convErr != nil {
				return nil, nil, -1, gbdterrors.NewIOError("ParseMachineList", "malformed rank= line", convErr)
			}
			pinnedRank = n
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		port, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			return nil, nil, -1, gbdterrors.NewIOError("ParseMachineList", "malformed port in machine list", convErr)
		}
		ips = append(ips, fields[0])
		ports = append(ports, port)
	}
	if err := r.Err(); err != nil {
		return nil, nil, -1, gbdterrors.NewIOError("ParseMachineList", "reading machine list", err)
	}
	if len(ips) == 0 {
		return nil, nil, -1, gbdterrors.NewIOError("ParseMachineList", "machine list is empty", nil)
	}
	return ips, ports, pinnedRank, nil
}

// NewLinkers parses cfg's machine list, resolves this peer's rank (from an
// explicit "rank=" pin, or by matching a local interface IP and the
// configured listen port), and computes this rank's Bruck and
// recursive-halving topologies. It does not open any sockets; call TryBind
// and then Construct for that.
func NewLinkers(cfg config.NetworkConfig) (*Linkers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Linkers{cfg: cfg, numMachines: cfg.NumMachines, conns: map[int]net.Conn{}}

	if cfg.NumMachines <= 1 {
		l.rank = 0
		l.Bruck = ConstructBruckMap(0, 1)
		l.RecursiveHalving = ConstructRecursiveHalvingMap(0, 1)
		return l, nil
	}

	f, err := os.Open(cfg.MachineListFilename)
	if err != nil {
		return nil, gbdterrors.NewIOError("NewLinkers", "opening machine list file", err)
	}
	defer f.Close()

	ips, ports, pinnedRank, err := ParseMachineList(bufio.NewScanner(f))
	if err != nil {
		return nil, err
	}
	l.clientIPs, l.clientPorts = ips, ports
	if len(ips) != cfg.NumMachines {
		logger.Warn("machine list size differs from configured num_machines",
			"configured", cfg.NumMachines, "parsed", len(ips))
		l.numMachines = len(ips)
	}

	l.rank = pinnedRank
	if l.rank == -1 {
		l.rank, err = resolveLocalRank(ips, ports, cfg.LocalListenPort)
		if err != nil {
			return nil, err
		}
	}

	l.Bruck = ConstructBruckMap(l.rank, l.numMachines)
	l.RecursiveHalving = ConstructRecursiveHalvingMap(l.rank, l.numMachines)
	return l, nil
}

func resolveLocalRank(ips []string, ports []int, listenPort int) (int, error) {
	localIPs := map[string]bool{}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return -1, gbdterrors.NewIOError("resolveLocalRank", "listing local interfaces", err)
	}
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok {
			localIPs[ipNet.IP.String()] = true
		}
	}
	for i, ip := range ips {
		if localIPs[ip] && ports[i] == listenPort {
			return i, nil
		}
	}
	return -1, gbdterrors.NewInvariantError("resolveLocalRank", "machine list file doesn't contain local machine")
}

// Rank reports this peer's resolved rank.
func (l *Linkers) Rank() int { return l.rank }

// NumMachines reports the resolved world size.
func (l *Linkers) NumMachines() int { return l.numMachines }

// TryBind binds this peer's listener to port, fatal on failure per the
// "network errors are fatal" policy.
func (l *Linkers) TryBind(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return gbdterrors.NewNetworkError(l.rank, "binding listen port failed", err)
	}
	l.listener = ln
	return nil
}

// requiredPeers returns the union of ranks this peer's Bruck and
// recursive-halving topologies require a connection to.
func (l *Linkers) requiredPeers() map[int]bool {
	need := map[int]bool{}
	for i := 0; i < l.Bruck.K; i++ {
		need[l.Bruck.OutRanks[i]] = true
		need[l.Bruck.InRanks[i]] = true
	}
	if l.RecursiveHalving.Type != Normal {
		need[l.RecursiveHalving.Neighbor] = true
	}
	if l.RecursiveHalving.Type != Other {
		for _, r := range l.RecursiveHalving.Ranks {
			need[r] = true
		}
	}
	return need
}

// ListenThread accepts exactly incomingCount inbound connections, each
// beginning with a 4-byte big-endian remote rank, and binds each to its
// announced rank. Returns once incomingCount connections are bound, or on
// the first accept/read error.
func (l *Linkers) ListenThread(incomingCount int) error {
	connected := 0
	for connected < incomingCount {
		conn, err := l.listener.Accept()
		if err != nil {
			return gbdterrors.NewNetworkError(l.rank, "accept failed during connection setup", err)
		}
		var rankBuf [4]byte
		if _, err := readFull(conn, rankBuf[:]); err != nil {
			return gbdterrors.NewNetworkError(l.rank, "reading remote rank on accept failed", err)
		}
		remoteRank := int(binary.BigEndian.Uint32(rankBuf[:]))
		l.setLinker(remoteRank, conn)
		connected++
	}
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (l *Linkers) setLinker(rank int, conn net.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[rank] = conn
}

// Conn returns the established connection to rank, if any.
func (l *Linkers) Conn(rank int) (net.Conn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.conns[rank]
	return c, ok
}

// Construct establishes every connection required by this rank's
// topologies, using the listener a prior TryBind call bound (Construct does
// not bind it): smaller ranks connect out to larger ranks (with retry),
// while this rank's own listener accepts connections from every required
// peer with a smaller rank. Blocks until both sides complete.
func (l *Linkers) Construct() error {
	need := l.requiredPeers()

	incomingCount := 0
	var outRanks []int
	for rank := range need {
		if rank < 0 || rank == l.rank {
			continue
		}
		if rank < l.rank {
			incomingCount++
		} else {
			outRanks = append(outRanks, rank)
		}
	}

	listenErrCh := make(chan error, 1)
	go func() { listenErrCh <- l.ListenThread(incomingCount) }()

	for _, out := range outRanks {
		if err := l.connectTo(out); err != nil {
			return err
		}
	}

	return <-listenErrCh
}

func (l *Linkers) connectTo(rank int) error {
	addr := fmt.Sprintf("%s:%d", l.clientIPs[rank], l.clientPorts[rank])
	var conn net.Conn
	var err error
	for attempt := 0; attempt < connectRetries; attempt++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		logger.Warn("connect to peer failed, retrying", "rank", rank, "attempt", attempt, "wait", connectRetryWait.String())
		time.Sleep(connectRetryWait)
	}
	if err != nil {
		return gbdterrors.NewNetworkError(rank, "unreachable after retry budget exhausted", err)
	}

	var rankBuf [4]byte
	binary.BigEndian.PutUint32(rankBuf[:], uint32(l.rank))
	if _, err := conn.Write(rankBuf[:]); err != nil {
		return gbdterrors.NewNetworkError(rank, "sending local rank failed", err)
	}
	l.setLinker(rank, conn)
	return nil
}

// Close closes every established connection and the listener.
func (l *Linkers) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.conns {
		_ = c.Close()
	}
	l.conns = map[int]net.Conn{}
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}
