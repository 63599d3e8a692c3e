package tracks

import (
	"strings"
	"testing"
)

func TestExtractCommand(t *testing.T) {
	if ExtractCommand(Tools{}, "/tmp/in.mkv", nil) != nil {
		t.Fatal("expected no command without jobs")
	}
	jobs := []AudioJob{
		{TrackID: 1, Source: "/t/a_t1.wav", SampleFormat: "pcm_s24le"},
		{TrackID: 3, Source: "/t/a_t3.wav", SampleFormat: "pcm_s16le"},
	}
	c := ExtractCommand(Tools{FFmpeg: "/usr/bin/ffmpeg"}, "/tmp/in.mkv", jobs)
	got := strings.Join(c.Args, " ")
	want := "-nostdin -hide_banner -loglevel error -y -i /tmp/in.mkv " +
		"-map 0:1 -c:a pcm_s24le -rf64 auto /t/a_t1.wav -map 0:3 -c:a pcm_s16le -rf64 auto /t/a_t3.wav"
	if got != want {
		t.Fatalf("unexpected args:\n got %s\nwant %s", got, want)
	}
	if c.Program != "/usr/bin/ffmpeg" || len(c.Outputs) != 2 {
		t.Fatalf("unexpected converter %+v", c)
	}
}

func TestEncodeCommands(t *testing.T) {
	tests := []struct {
		job     AudioJob
		program string
		args    string
	}{
		{
			job:     AudioJob{Source: "s.wav", Output: "o.flac", Codec: "flac"},
			program: "flac",
			args:    "-8 --silent -f -o o.flac s.wav",
		},
		{
			job:     AudioJob{Source: "s.wav", Output: "o.opus", Codec: "opus", BitrateKbps: 576},
			program: "opusenc",
			args:    "--quiet --bitrate 576 s.wav o.opus",
		},
		{
			job:     AudioJob{Source: "s.wav", Output: "o.m4a", Codec: "aac", BitrateKbps: 192},
			program: "ffmpeg",
			args:    "-nostdin -hide_banner -loglevel error -y -i s.wav -c:a aac -b:a 192k o.m4a",
		},
	}
	for _, tc := range tests {
		cmds := tc.job.EncodeCommands(Tools{})
		if len(cmds) != 1 {
			t.Fatalf("expected one command for %s, got %d", tc.job.Codec, len(cmds))
		}
		if cmds[0].Program != tc.program || strings.Join(cmds[0].Args, " ") != tc.args {
			t.Fatalf("unexpected %s command: %s", tc.job.Codec, cmds[0])
		}
	}
}

func TestEncodeCommandsDownmix(t *testing.T) {
	job := AudioJob{Source: "s.wav", Output: "o.opus", Downmix: "o_stereo.opus", Codec: "opus", BitrateKbps: 576, Channels: 6}
	cmds := job.EncodeCommands(Tools{})
	if len(cmds) != 2 {
		t.Fatalf("expected encode and downmix, got %d", len(cmds))
	}
	args := strings.Join(cmds[1].Args, " ")
	if !strings.Contains(args, "-ac 2 -c:a libopus -b:a 192k o_stereo.opus") {
		t.Fatalf("unexpected downmix args %s", args)
	}
}

func TestVideoCommand(t *testing.T) {
	job := VideoJob{
		TrackID:     0,
		Output:      "/t/v.mkv",
		Codec:       "libx265",
		CRF:         18,
		Preset:      "slow",
		PixelFormat: "yuv420p10le",
		Colour:      map[string]string{"colorspace": "bt2020nc", "color_primaries": "bt2020"},
	}
	got := strings.Join(job.Command(Tools{}, "/in.mkv").Args, " ")
	want := "-nostdin -hide_banner -loglevel error -y -i /in.mkv -map 0:0 -c:v libx265 -crf 18 -preset slow " +
		"-pix_fmt yuv420p10le -color_primaries bt2020 -colorspace bt2020nc /t/v.mkv"
	if got != want {
		t.Fatalf("unexpected args:\n got %s\nwant %s", got, want)
	}
}
