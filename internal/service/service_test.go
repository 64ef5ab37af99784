package service

import "testing"

func TestPageCount(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := PageCount(tc.total, tc.limit); got != tc.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestPageBoundsClamping(t *testing.T) {
	cases := []struct {
		page, limit            int
		wantLimit, wantOffset  int
	}{
		{1, 10, 10, 0},
		{3, 10, 10, 20},
		{0, 0, defaultPageSize, 0},
		{-5, -1, defaultPageSize, 0},
		{2, 500, maxPageSize, maxPageSize},
	}
	for _, tc := range cases {
		limit, offset := pageBounds(tc.page, tc.limit)
		if limit != tc.wantLimit || offset != tc.wantOffset {
			t.Errorf("pageBounds(%d, %d) = (%d, %d), want (%d, %d)",
				tc.page, tc.limit, limit, offset, tc.wantLimit, tc.wantOffset)
		}
	}
}
