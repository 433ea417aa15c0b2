package storage

import "testing"

func TestObjectPathRoundTrip(t *testing.T) {
	c := &Client{bucket: "rudraksha-products", publicHost: defaultPublicHost}

	url := c.PublicURL("products/prod-1/front.webp")
	want := "https://storage.googleapis.com/rudraksha-products/products/prod-1/front.webp"
	if url != want {
		t.Fatalf("expected %q, got %q", want, url)
	}

	object, err := c.ObjectPath(url)
	if err != nil {
		t.Fatalf("ObjectPath returned error: %v", err)
	}
	if object != "products/prod-1/front.webp" {
		t.Fatalf("unexpected object path %q", object)
	}
}

func TestObjectPathRejectsForeignURLs(t *testing.T) {
	c := &Client{bucket: "rudraksha-products", publicHost: defaultPublicHost}

	cases := []string{
		"https://storage.googleapis.com/other-bucket/products/x.webp",
		"https://storage.googleapis.com/rudraksha-products/",
		"://not-a-url",
	}
	for _, u := range cases {
		if _, err := c.ObjectPath(u); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestContentTypeAllowed(t *testing.T) {
	allowed := []string{"image/*", "application/pdf"}

	cases := []struct {
		contentType string
		want        bool
	}{
		{"image/webp", true},
		{"IMAGE/PNG", true},
		{"application/pdf", true},
		{"video/mp4", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := contentTypeAllowed(tc.contentType, allowed); got != tc.want {
			t.Errorf("contentTypeAllowed(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}

	if !contentTypeAllowed("anything/else", []string{"*"}) {
		t.Error("wildcard should allow any content type")
	}
	if contentTypeAllowed("image/png", nil) {
		t.Error("empty allowlist should deny")
	}
}
