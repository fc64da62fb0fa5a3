// Package policy programs the SYN-filter forwarding policy: TCP segments
// with the SYN flag set go to the controller, everything else hits a
// wildcard drop entry.
package policy

import (
	"context"
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"

	p4_v1 "github.com/p4lang/p4runtime/go/p4/v1"

	"github.com/sparknet/synwatch/pkg/client"
)

// Entity names declared by the SYN-filter P4 program, as emitted in its
// P4Info.
const (
	SynFlagTable              = "MyIngress.syn_flag_table"
	ForwardToControllerAction = "MyIngress.forward_to_controller"
	DropAction                = "MyIngress._drop"
	TCPFlagsField             = "hdr.tcp.flags"
)

const (
	// SynFlagMask selects the SYN bit of the 8-bit TCP flags field.
	SynFlagMask uint64 = 0x02
	// SynEntryPriority must stay above DefaultDropPriority: both entries
	// match a SYN segment and the device picks the higher priority.
	SynEntryPriority    int32 = 100
	DefaultDropPriority int32 = 10
)

type InstallerOptions struct {
	SynMask      uint64
	SynPriority  int32
	DropPriority int32
}

var defaultInstallerOptions = InstallerOptions{
	SynMask:      SynFlagMask,
	SynPriority:  SynEntryPriority,
	DropPriority: DefaultDropPriority,
}

// Installer builds and writes the policy's table entries over an established
// session. It keeps a local mirror of the entries it wrote; the device stays
// authoritative, the mirror only lets a session report what it already
// installed.
type Installer struct {
	InstallerOptions
	p4RtC     *client.Client
	log       *log.Entry
	installed map[string]*p4_v1.TableEntry
}

func NewInstaller(p4RtC *client.Client, optionsModifierFns ...func(*InstallerOptions)) *Installer {
	options := defaultInstallerOptions
	for _, fn := range optionsModifierFns {
		fn(&options)
	}
	return &Installer{
		InstallerOptions: options,
		p4RtC:            p4RtC,
		log:              log.WithField("table", SynFlagTable),
		installed:        make(map[string]*p4_v1.TableEntry),
	}
}

// InstallSynMatchEntry writes the ternary entry matching the SYN bit of the
// TCP flags field, forwarding matching packets to the controller. A write
// rejected by the device (including a duplicate insert) is returned as a
// *client.WriteError and is never masked.
func (i *Installer) InstallSynMatchEntry(ctx context.Context) error {
	mf, err := i.p4RtC.NewTernaryMatchField(TCPFlagsField, i.SynMask, i.SynMask)
	if err != nil {
		return err
	}
	action, err := i.p4RtC.NewTableActionDirect(ForwardToControllerAction, nil)
	if err != nil {
		return err
	}
	entry, err := i.p4RtC.NewTableEntry(SynFlagTable, []*p4_v1.FieldMatch{mf}, action, i.SynPriority)
	if err != nil {
		return err
	}
	return i.insert(ctx, entry)
}

// InstallDefaultDropEntry writes the wildcard entry dropping everything the
// SYN entry does not claim. No match fields: it structurally matches every
// packet and loses to the SYN entry on priority alone.
func (i *Installer) InstallDefaultDropEntry(ctx context.Context) error {
	action, err := i.p4RtC.NewTableActionDirect(DropAction, nil)
	if err != nil {
		return err
	}
	entry, err := i.p4RtC.NewTableEntry(SynFlagTable, nil, action, i.DropPriority)
	if err != nil {
		return err
	}
	return i.insert(ctx, entry)
}

// Apply installs the full policy in order: SYN entry, then default drop. The
// first failure aborts the sequence; there is no partially-installed state
// to recover from.
func (i *Installer) Apply(ctx context.Context) error {
	if i.SynPriority <= i.DropPriority {
		return fmt.Errorf("SYN entry priority %d must be strictly greater than drop entry priority %d",
			i.SynPriority, i.DropPriority)
	}
	i.log.Info("Installing SYN match entry")
	if err := i.InstallSynMatchEntry(ctx); err != nil {
		return err
	}
	i.log.Info("Installing default drop entry")
	if err := i.InstallDefaultDropEntry(ctx); err != nil {
		return err
	}
	return nil
}

// InstalledEntries returns the entries successfully written during this
// session.
func (i *Installer) InstalledEntries() []*p4_v1.TableEntry {
	entries := make([]*p4_v1.TableEntry, 0, len(i.installed))
	for _, entry := range i.installed {
		entries = append(entries, entry)
	}
	return entries
}

func (i *Installer) insert(ctx context.Context, entry *p4_v1.TableEntry) error {
	key, err := entryKey(entry)
	if err != nil {
		return err
	}
	if _, ok := i.installed[key]; ok {
		// still sent: the device is the authority on duplicates and will
		// answer ALREADY_EXISTS
		i.log.Warnf("Entry with priority %d was already installed in this session", entry.Priority)
	}
	if err := i.p4RtC.InsertTableEntry(ctx, entry); err != nil {
		i.log.Errorf("Error adding entry: %+v\n%v", entry, err)
		return err
	}
	i.installed[key] = entry
	i.log.Tracef("Added entry: %+v", entry)
	return nil
}

// entryKey identifies an entry by its match key: table, field matches and
// priority. The action is deliberately excluded, matching how the device
// keys entries.
func entryKey(entry *p4_v1.TableEntry) (string, error) {
	keyEntry := &p4_v1.TableEntry{
		TableId:  entry.TableId,
		Match:    entry.Match,
		Priority: entry.Priority,
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(keyEntry)
	if err != nil {
		return "", fmt.Errorf("cannot compute entry key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
