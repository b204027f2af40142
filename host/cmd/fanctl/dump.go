package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fanctl/storage"
)

// dumpReport is the decoded view of a configuration flash image.
type dumpReport struct {
	FormatVersion int           `yaml:"format_version"`
	Formatted     bool          `yaml:"formatted"`
	Corrupt       bool          `yaml:"corrupt"`
	Groups        []string      `yaml:"groups"`
	SlotsUsed     int           `yaml:"slots_used"`
	Slots         int           `yaml:"slots"`
	CurrentSlot   int           `yaml:"current_slot,omitempty"`
	Address       string        `yaml:"address,omitempty"`
	Record        *recordReport `yaml:"record,omitempty"`
	Error         string        `yaml:"error,omitempty"`
}

type recordReport struct {
	PWMMap          []int  `yaml:"pwm_map,flow"`
	SourceFullSpeed uint32 `yaml:"source_full_speed"`
	TargetFullSpeed uint32 `yaml:"target_full_speed"`
	ChecksumOK      bool   `yaml:"checksum_ok"`
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <image>",
		Short: "Decode a raw dump of the configuration flash",
		Long: `dump reads a raw image of the controller's configuration flash region
and prints the allocation table and the newest record as YAML. The image is
never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			report, err := inspectImage(img, storage.DefaultGeometry())
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// inspectImage decodes img without running the store's recovery paths,
// which would format or reset the log.
func inspectImage(img []byte, geom storage.Geometry) (*dumpReport, error) {
	flash := storage.NewMemFlash(geom)
	if err := flash.LoadImage(img); err != nil {
		return nil, fmt.Errorf("image must be %d bytes, got %d", geom.Size(), len(img))
	}
	raw := flash.Bytes()

	groups := geom.Groups()
	rat := storage.DecodeRAT(raw[:groups+1])
	report := &dumpReport{
		FormatVersion: storage.FormatVersion,
		Formatted:     raw[0]&0x01 == 0,
		Corrupt:       rat.Corrupt,
		Groups:        make([]string, groups),
		SlotsUsed:     rat.SlotsUsed(),
		Slots:         geom.Slots(),
	}
	for g := 0; g < groups; g++ {
		report.Groups[g] = fmt.Sprintf("0x%02x", raw[g])
	}

	slot, err := rat.CurrentSlot()
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	addr := geom.SlotAddr(slot)
	report.CurrentSlot = slot
	report.Address = fmt.Sprintf("0x%04x", addr)

	rec, err := storage.DecodeRecord(raw[addr : int(addr)+storage.RecordWireSize])
	if err != nil && !errors.Is(err, storage.ErrChecksum) {
		return nil, err
	}
	pwm := make([]int, len(rec.PWMMap))
	for i, v := range rec.PWMMap {
		pwm[i] = int(v)
	}
	report.Record = &recordReport{
		PWMMap:          pwm,
		SourceFullSpeed: rec.SourceFullSpeed,
		TargetFullSpeed: rec.TargetFullSpeed,
		ChecksumOK:      err == nil,
	}
	return report, nil
}
