package model

import (
	"testing"

	"github.com/ctessum/sparse"
)

func TestNewScalar(t *testing.T) {
	da := NewScalar("u_O_TPRT", 0.1, UnitKelvin)
	if !da.IsScalar() {
		t.Fatal("NewScalar should produce a scalar array")
	}
	if got := da.Scalar(); got != 0.1 {
		t.Errorf("Scalar() = %v, want 0.1", got)
	}
	if da.Units != UnitKelvin {
		t.Errorf("Units = %q, want %q", da.Units, UnitKelvin)
	}
}

func TestNewDataArrayRankMismatch(t *testing.T) {
	data := sparse.ZerosDense(19, 56)
	if _, err := NewDataArray("u", data, []string{DimCalibratedChannel}, UnitCounts); err == nil {
		t.Fatal("expected error for rank/label mismatch")
	}
	da, err := NewDataArray("u", data, []string{DimCalibratedChannel, DimScanpos}, UnitCounts)
	if err != nil {
		t.Fatalf("NewDataArray: %v", err)
	}
	if da.IsScalar() {
		t.Error("labelled 2-D array must not report scalar")
	}
}

func TestDataArrayCopyIsolation(t *testing.T) {
	data := sparse.ZerosDense(2, 2)
	data.Set(5, 0, 1)
	da, err := NewDataArray("u", data, []string{DimScanlineEarth, DimScanpos}, UnitKelvin)
	if err != nil {
		t.Fatalf("NewDataArray: %v", err)
	}
	da.SetAttr("note", "original")

	cp := da.Copy()
	cp.Data.Set(-1, 0, 1)
	cp.SetAttr("note", "mutated")
	cp.Dims[0] = "elsewhere"

	if got := da.At(0, 1); got != 5 {
		t.Errorf("copy mutation leaked into data: %v", got)
	}
	if v, _ := da.Attr("note"); v != "original" {
		t.Errorf("copy mutation leaked into attrs: %v", v)
	}
	if da.Dims[0] != DimScanlineEarth {
		t.Errorf("copy mutation leaked into dims: %v", da.Dims)
	}
}

func TestSetDefaultAttrKeepsExisting(t *testing.T) {
	da := NewScalar("u", 1, UnitDimensionless)
	da.SetAttr("long_name", "reader supplied")
	da.SetDefaultAttr("long_name", "stamped default")
	if v, _ := da.Attr("long_name"); v != "reader supplied" {
		t.Errorf("SetDefaultAttr overwrote existing attribute: %v", v)
	}
	da.SetDefaultAttr("fresh", 42)
	if v, _ := da.Attr("fresh"); v != 42 {
		t.Errorf("SetDefaultAttr skipped absent attribute: %v", v)
	}
}
