package service

import (
	"errors"
	"reflect"
	"testing"
)

func TestRejectedLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []int64
		want   []int64
	}{
		{"gaps in the middle", []int64{10, 11, 14, 15}, []int64{12, 13}},
		{"contiguous run", []int64{1, 2, 3, 4}, []int64{}},
		{"unsorted input", []int64{15, 10, 14, 11}, []int64{12, 13}},
		{"single label", []int64{7}, []int64{}},
		{"empty", nil, []int64{}},
		{"wide gap", []int64{1, 5}, []int64{2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RejectedLabels(tt.labels)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RejectedLabels(%v) = %v, want %v", tt.labels, got, tt.want)
			}
		})
	}
}

func TestSetOnce(t *testing.T) {
	// 零值可写
	got, err := setOnce(false, true, false, false, "packed_size")
	if err != nil || got != true {
		t.Fatalf("expected write on zero value, got %v err %v", got, err)
	}

	// 等值重复提交幂等
	got, err = setOnce(true, true, false, false, "packed_size")
	if err != nil || got != true {
		t.Fatalf("expected idempotent resubmit, got %v err %v", got, err)
	}

	// 非admin不可改写
	_, err = setOnce(int64(123), int64(456), int64(0), false, "barcode")
	var immutable *ImmutableFieldError
	if !errors.As(err, &immutable) {
		t.Fatalf("expected ImmutableFieldError, got %v", err)
	}
	if immutable.Field != "barcode" {
		t.Errorf("expected field barcode, got %s", immutable.Field)
	}

	// admin可覆盖
	gotBarcode, err := setOnce(int64(123), int64(456), int64(0), true, "barcode")
	if err != nil || gotBarcode != 456 {
		t.Fatalf("expected admin override, got %v err %v", gotBarcode, err)
	}
}

func TestDedupeLabels(t *testing.T) {
	got, err := dedupeLabels([]int64{3, 1, 2, 3, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}

	if _, err := dedupeLabels(nil); err == nil {
		t.Error("expected error for empty labels")
	}
	if _, err := dedupeLabels([]int64{1, 0}); err == nil {
		t.Error("expected error for non-positive label")
	}
}
