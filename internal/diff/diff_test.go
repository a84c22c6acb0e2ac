package diff

import "testing"

const sampleDiff = `diff --git a/main.go b/main.go
index 1234567..89abcde 100644
--- a/main.go
+++ b/main.go
@@ -10,3 +10,5 @@ func main() {
 	fmt.Println("start")
+	x := compute()
+	fmt.Println(x)
 	fmt.Println("done")
 }
diff --git a/old.go b/old.go
deleted file mode 100644
--- a/old.go
+++ /dev/null
@@ -1,3 +0,0 @@
-package main
-
-func old() {}
diff --git a/util.go b/util.go
new file mode 100644
--- /dev/null
+++ b/util.go
@@ -0,0 +1,3 @@
+package main
+
+func compute() int { return 42 }
`

func TestParse(t *testing.T) {
	files, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3", len(files))
	}

	if files[0].Path != "main.go" || files[0].Status != StatusModified {
		t.Errorf("files[0] = %+v", files[0])
	}
	if len(files[0].Hunks) != 1 {
		t.Fatalf("main.go hunks = %d, want 1", len(files[0].Hunks))
	}
	h := files[0].Hunks[0]
	if h.NewStart != 10 || h.NewLines != 5 {
		t.Errorf("main.go hunk = %+v", h)
	}

	if files[1].Path != "old.go" || files[1].Status != StatusDeleted {
		t.Errorf("files[1] = %+v", files[1])
	}
	if files[2].Path != "util.go" || files[2].Status != StatusAdded {
		t.Errorf("files[2] = %+v", files[2])
	}
}

func TestParse_Rename(t *testing.T) {
	text := `diff --git a/foo.go b/bar.go
similarity index 95%
rename from foo.go
rename to bar.go
--- a/foo.go
+++ b/bar.go
@@ -1,2 +1,2 @@
-package foo
+package bar
`
	files, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
	if files[0].Status != StatusRenamed || files[0].Path != "bar.go" || files[0].OldPath != "foo.go" {
		t.Errorf("rename entry = %+v", files[0])
	}
}

func TestParse_MalformedHunkHeader(t *testing.T) {
	text := "diff --git a/x.go b/x.go\n--- a/x.go\n+++ b/x.go\n@@ garbage\n"
	if _, err := Parse(text); err == nil {
		t.Fatal("expected error for malformed hunk header")
	}
}

func TestContainsNewLine(t *testing.T) {
	f := File{Path: "x.go", Status: StatusModified, Hunks: []Hunk{{NewStart: 10, NewLines: 6}}}

	tests := []struct {
		line int
		want bool
	}{
		{9, false},
		{10, true},
		{15, true},
		{16, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := f.ContainsNewLine(tt.line); got != tt.want {
			t.Errorf("ContainsNewLine(%d) = %v, want %v", tt.line, got, tt.want)
		}
	}

	deleted := File{Path: "gone.go", Status: StatusDeleted, Hunks: []Hunk{{NewStart: 1, NewLines: 3}}}
	if deleted.ContainsNewLine(1) {
		t.Error("deleted files have no commentable lines")
	}
}

func TestNearestNewLine(t *testing.T) {
	f := File{Path: "x.go", Status: StatusModified, Hunks: []Hunk{
		{NewStart: 10, NewLines: 6},
		{NewStart: 40, NewLines: 4},
	}}

	nearest, dist, ok := f.NearestNewLine(17)
	if !ok || nearest != 15 || dist != 2 {
		t.Errorf("NearestNewLine(17) = (%d, %d, %v)", nearest, dist, ok)
	}

	nearest, dist, ok = f.NearestNewLine(30)
	if !ok || dist != 10 {
		t.Errorf("NearestNewLine(30) = (%d, %d, %v)", nearest, dist, ok)
	}

	empty := File{Path: "y.go", Status: StatusModified}
	if _, _, ok := empty.NearestNewLine(5); ok {
		t.Error("file without hunks reported a nearest line")
	}
}

func TestChangedLines(t *testing.T) {
	files := []File{
		{Hunks: []Hunk{{NewLines: 6}, {NewLines: 4}}},
		{Hunks: []Hunk{{NewLines: 3}}},
	}
	if got := ChangedLines(files); got != 13 {
		t.Errorf("ChangedLines = %d, want 13", got)
	}
}

func TestAddedLines(t *testing.T) {
	added := AddedLines(sampleDiff)
	want := []AddedLine{
		{File: "main.go", Line: 11, Content: "\tx := compute()"},
		{File: "main.go", Line: 12, Content: "\tfmt.Println(x)"},
		{File: "util.go", Line: 1, Content: "package main"},
		{File: "util.go", Line: 2, Content: ""},
		{File: "util.go", Line: 3, Content: "func compute() int { return 42 }"},
	}
	if len(added) != len(want) {
		t.Fatalf("len(added) = %d, want %d: %+v", len(added), len(want), added)
	}
	for i := range want {
		if added[i] != want[i] {
			t.Errorf("added[%d] = %+v, want %+v", i, added[i], want[i])
		}
	}
}

func TestAddedLines_SkipsDeletedFiles(t *testing.T) {
	for _, al := range AddedLines(sampleDiff) {
		if al.File == "old.go" {
			t.Errorf("deleted file produced added line: %+v", al)
		}
	}
}
